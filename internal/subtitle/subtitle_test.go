package subtitle

import (
	"testing"

	"github.com/JamesWuHK/demo-video-generator/internal/timeline"
)

func TestGenerateTwoCues(t *testing.T) {
	entries := []timeline.Entry{
		{SceneID: "a", Start: 0, AudioDuration: 3},
		{SceneID: "b", Start: 3, AudioDuration: 2},
	}
	narrations := map[string]string{"a": "Hello", "b": "World"}

	got := Generate(entries, narrations)
	want := "1\n00:00:00,000 --> 00:00:03,000\nHello\n\n" +
		"2\n00:00:03,000 --> 00:00:05,000\nWorld\n\n"
	if got != want {
		t.Errorf("Generate =\n%q\nwant\n%q", got, want)
	}
}

func TestGenerateSkipsNonNarratedScenes(t *testing.T) {
	entries := []timeline.Entry{
		{SceneID: "a", Start: 0, AudioDuration: 3},
		{SceneID: "silent", Start: 3, AudioDuration: 4},
		{SceneID: "c", Start: 7, AudioDuration: 1.5},
	}
	narrations := map[string]string{"a": "First", "c": "Third"}

	got := Generate(entries, narrations)
	// The silent scene produces no cue and does not consume a number:
	// the second emitted cue is numbered 2.
	want := "1\n00:00:00,000 --> 00:00:03,000\nFirst\n\n" +
		"2\n00:00:07,000 --> 00:00:08,500\nThird\n\n"
	if got != want {
		t.Errorf("Generate =\n%q\nwant\n%q", got, want)
	}
}

func TestGenerateEmpty(t *testing.T) {
	if got := Generate(nil, nil); got != "" {
		t.Errorf("Generate(nil) = %q, want empty", got)
	}
}

func TestFormatSRTTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.123, "00:01:01,123"},
		{3600, "01:00:00,000"},
		{7200.5, "02:00:00,500"},
		{0.083, "00:00:00,083"},
		// Negative starts clamp to zero instead of flipping sign.
		{-1.5, "00:00:00,000"},
		{-0.001, "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := formatSRTTime(tt.seconds); got != tt.want {
			t.Errorf("formatSRTTime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
