// Package tts synthesizes narration audio ahead of recording. Each
// scene's clip is independent, so synthesis is the one phase of the
// pipeline that runs concurrently.
package tts

import "context"

// Synthesizer produces one narration clip and reports its duration in
// seconds. The duration is the authoritative input to scene duration
// resolution.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outputPath string) (float64, error)
}

// Result is one synthesized narration clip.
type Result struct {
	SceneID  string
	Path     string
	Duration float64
}
