// Package compositor overlays independently synthesized narration audio
// onto the trimmed raw capture using the recorder's timestamp map. It is
// a pure, single-pass transform over already-complete inputs and never
// touches the live session.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/JamesWuHK/demo-video-generator/internal/ffmpeg"
	"github.com/JamesWuHK/demo-video-generator/internal/timeline"
)

// ErrCompositionFailed wraps encoder failures.
var ErrCompositionFailed = errors.New("composition failed")

// Encoder performs the actual trim-and-overlay encode. The production
// implementation shells out to ffmpeg.
type Encoder interface {
	Encode(ctx context.Context, job ffmpeg.EncodeJob) error
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(ctx context.Context, job ffmpeg.EncodeJob) error

func (f EncoderFunc) Encode(ctx context.Context, job ffmpeg.EncodeJob) error { return f(ctx, job) }

// Job describes one composition pass.
type Job struct {
	CapturePath string
	Timestamps  *timeline.Map
	// AudioPaths maps scene id to its synthesized clip. Not every scene
	// has narration; entries without audio are silent gaps.
	AudioPaths map[string]string
	// TrimStart is removed from the front of the capture, normally the
	// recording's lead-in duration. <= 0 means no trim.
	TrimStart  float64
	FPS        int
	Bitrate    string
	Preset     string
	OutputPath string
}

// Compositor places narration clips into the trimmed capture.
type Compositor struct {
	enc Encoder
}

// New returns a Compositor over the given encoder.
func New(enc Encoder) *Compositor {
	return &Compositor{enc: enc}
}

// Compose builds the audio placement from the timestamp map and runs the
// encode. Timestamps were recorded from the capture's own origin, so the
// trim offset is subtracted from each start exactly once; entries whose
// audio is missing become silent gaps, and if no audio is placed at all
// the output still proceeds as silent video with a warning.
func (c *Compositor) Compose(ctx context.Context, job Job) error {
	trim := job.TrimStart
	if trim < 0 {
		trim = 0
	}

	var tracks []ffmpeg.AudioTrack
	for _, e := range job.Timestamps.Entries() {
		path, ok := job.AudioPaths[e.SceneID]
		if !ok {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			slog.Warn("audio clip missing at merge time, leaving gap", "scene", e.SceneID, "path", path)
			continue
		}
		tracks = append(tracks, ffmpeg.AudioTrack{Path: path, Start: e.Start - trim})
	}

	if len(tracks) == 0 {
		slog.Warn("no audio tracks placed, output will be silent video")
	}

	err := c.enc.Encode(ctx, ffmpeg.EncodeJob{
		VideoPath:  job.CapturePath,
		TrimStart:  trim,
		Tracks:     tracks,
		FPS:        job.FPS,
		Bitrate:    job.Bitrate,
		Preset:     job.Preset,
		OutputPath: job.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCompositionFailed, err)
	}

	slog.Info("composition complete", "output", job.OutputPath, "tracks", len(tracks))
	return nil
}
