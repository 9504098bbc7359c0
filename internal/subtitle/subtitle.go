// Package subtitle derives SRT cues directly from the timestamp map and
// narration text, independent of audio mixing.
package subtitle

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/JamesWuHK/demo-video-generator/internal/timeline"
)

// Generate emits one cue per scene with non-empty narration, in scene
// order, numbered from 1. Scenes without narration produce no cue and do
// not consume a cue number. Entries are expected to be expressed
// relative to the output the subtitles accompany (i.e. already
// lead-in-adjusted when the capture was trimmed).
func Generate(entries []timeline.Entry, narrations map[string]string) string {
	var sb strings.Builder
	cue := 1
	for _, e := range entries {
		text, ok := narrations[e.SceneID]
		if !ok || text == "" {
			continue
		}
		start := formatSRTTime(e.Start)
		end := formatSRTTime(e.Start + e.AudioDuration)
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n", cue, start, end, text)
		cue++
	}
	return sb.String()
}

// WriteFile writes the generated cues to path.
func WriteFile(path string, entries []timeline.Entry, narrations map[string]string) error {
	return os.WriteFile(path, []byte(Generate(entries, narrations)), 0644)
}

// formatSRTTime converts seconds to SRT time format HH:MM:SS,mmm.
// Negative inputs clamp to zero rather than silently flipping sign.
// Hours are fixed at two digits; durations of 100 hours or more are out
// of scope for this format.
func formatSRTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMS := int(math.Round(seconds * 1000))
	hours := totalMS / 3600000
	minutes := (totalMS % 3600000) / 60000
	secs := (totalMS % 60000) / 1000
	millis := totalMS % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
