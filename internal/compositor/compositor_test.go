package compositor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JamesWuHK/demo-video-generator/internal/ffmpeg"
	"github.com/JamesWuHK/demo-video-generator/internal/timeline"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

type captureEncoder struct {
	job ffmpeg.EncodeJob
	err error
}

func (e *captureEncoder) Encode(_ context.Context, job ffmpeg.EncodeJob) error {
	e.job = job
	return e.err
}

func TestComposeTrimShiftAppliedOnce(t *testing.T) {
	dir := t.TempDir()
	audioA := touch(t, dir, "a.mp3")

	var m timeline.Map
	// Recorded with a 4s lead-in: the first scene starts at 4.0 from the
	// capture origin.
	m.Append(timeline.Entry{SceneID: "a", Start: 4.0, AudioDuration: 3})

	enc := &captureEncoder{}
	c := New(enc)

	err := c.Compose(context.Background(), Job{
		CapturePath: "/tmp/capture.webm",
		Timestamps:  &m,
		AudioPaths:  map[string]string{"a": audioA},
		TrimStart:   4.0,
		FPS:         30,
		Bitrate:     "8000k",
		Preset:      "slow",
		OutputPath:  filepath.Join(dir, "out.mp4"),
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if enc.job.TrimStart != 4.0 {
		t.Errorf("trim = %v, want 4.0", enc.job.TrimStart)
	}
	if len(enc.job.Tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(enc.job.Tracks))
	}
	// After trimming 4s the scene's audio sits at offset 0 in the
	// trimmed output: the lead-in is subtracted exactly once.
	if enc.job.Tracks[0].Start != 0 {
		t.Errorf("track start = %v, want 0.0", enc.job.Tracks[0].Start)
	}
}

func TestComposeMissingAudioIsSilentGap(t *testing.T) {
	dir := t.TempDir()
	audioB := touch(t, dir, "b.mp3")

	var m timeline.Map
	m.Append(timeline.Entry{SceneID: "a", Start: 0, AudioDuration: 3})
	m.Append(timeline.Entry{SceneID: "b", Start: 3, AudioDuration: 2})
	m.Append(timeline.Entry{SceneID: "c", Start: 5, AudioDuration: 2})

	enc := &captureEncoder{}
	c := New(enc)

	err := c.Compose(context.Background(), Job{
		CapturePath: "/tmp/capture.webm",
		Timestamps:  &m,
		AudioPaths: map[string]string{
			"b": audioB,
			"c": filepath.Join(dir, "does-not-exist.mp3"),
		},
		FPS:        30,
		Bitrate:    "8000k",
		OutputPath: filepath.Join(dir, "out.mp4"),
	})
	if err != nil {
		t.Fatalf("missing audio must not be fatal: %v", err)
	}

	if len(enc.job.Tracks) != 1 {
		t.Fatalf("tracks = %d, want 1 (a has no audio, c's file is gone)", len(enc.job.Tracks))
	}
	if enc.job.Tracks[0].Path != audioB || enc.job.Tracks[0].Start != 3 {
		t.Errorf("track = %+v", enc.job.Tracks[0])
	}
}

func TestComposeZeroTracksStillEncodes(t *testing.T) {
	var m timeline.Map
	m.Append(timeline.Entry{SceneID: "a", Start: 0, AudioDuration: 3})

	enc := &captureEncoder{}
	c := New(enc)

	err := c.Compose(context.Background(), Job{
		CapturePath: "/tmp/capture.webm",
		Timestamps:  &m,
		AudioPaths:  nil,
		FPS:         30,
		Bitrate:     "8000k",
		OutputPath:  "/tmp/out.mp4",
	})
	if err != nil {
		t.Fatalf("zero tracks must still produce silent video: %v", err)
	}
	if len(enc.job.Tracks) != 0 {
		t.Errorf("tracks = %d, want 0", len(enc.job.Tracks))
	}
}

func TestComposeNegativeTrimMeansNoTrim(t *testing.T) {
	dir := t.TempDir()
	audio := touch(t, dir, "a.mp3")

	var m timeline.Map
	m.Append(timeline.Entry{SceneID: "a", Start: 1.5, AudioDuration: 3})

	enc := &captureEncoder{}
	c := New(enc)

	err := c.Compose(context.Background(), Job{
		CapturePath: "/tmp/capture.webm",
		Timestamps:  &m,
		AudioPaths:  map[string]string{"a": audio},
		TrimStart:   -2,
		FPS:         30,
		Bitrate:     "8000k",
		OutputPath:  "/tmp/out.mp4",
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if enc.job.TrimStart != 0 {
		t.Errorf("trim = %v, want 0", enc.job.TrimStart)
	}
	if enc.job.Tracks[0].Start != 1.5 {
		t.Errorf("track start = %v, want unshifted 1.5", enc.job.Tracks[0].Start)
	}
}

func TestComposeEncoderFailure(t *testing.T) {
	var m timeline.Map
	m.Append(timeline.Entry{SceneID: "a", Start: 0, AudioDuration: 1})

	enc := &captureEncoder{err: errors.New("codec exploded")}
	c := New(enc)

	err := c.Compose(context.Background(), Job{
		CapturePath: "/tmp/capture.webm",
		Timestamps:  &m,
		OutputPath:  "/tmp/out.mp4",
	})
	if !errors.Is(err, ErrCompositionFailed) {
		t.Errorf("err = %v, want ErrCompositionFailed", err)
	}
}
