package tts

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/JamesWuHK/demo-video-generator/internal/script"
)

// PoolOptions configures the synthesis pool.
type PoolOptions struct {
	MaxConcurrent   int
	MaxRetries      int
	RateLimitPerMin int
}

// SynthesizeAll generates narration clips for every scene with non-empty
// narration, with bounded parallelism and rate limiting. Clips land in
// dir as <scene-id>.mp3. The returned map is keyed by scene id; scenes
// without narration have no entry.
func SynthesizeAll(ctx context.Context, scenes []script.Scene, synth Synthesizer, dir string, opts PoolOptions) (map[string]Result, error) {
	narrated := make([]script.Scene, 0, len(scenes))
	for _, s := range scenes {
		if s.Narration != "" {
			narrated = append(narrated, s)
		}
	}
	if len(narrated) == 0 {
		return map[string]Result{}, nil
	}

	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}

	slog.Info("synthesizing narration",
		"scenes", len(narrated),
		"max_concurrent", opts.MaxConcurrent,
		"rate_limit_rpm", opts.RateLimitPerMin)

	var limiter *rate.Limiter
	if opts.RateLimitPerMin > 0 {
		// Rate limiter: tokens per second = RPM / 60.
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RateLimitPerMin)/60.0), 1)
	}

	var (
		mu      sync.Mutex
		results = make(map[string]Result, len(narrated))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxConcurrent)

	for i, scene := range narrated {
		i, scene := i, scene
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return fmt.Errorf("rate limiter: %w", err)
				}
			}

			outPath := filepath.Join(dir, scene.ID+".mp3")
			slog.Info("synthesizing scene audio",
				"scene", scene.ID, "progress", fmt.Sprintf("%d/%d", i+1, len(narrated)))

			var dur float64
			var lastErr error

			// Retry loop with exponential backoff.
			for attempt := 0; attempt < opts.MaxRetries; attempt++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				d, err := synth.Synthesize(gctx, scene.Narration, outPath)
				if err == nil {
					dur = d
					lastErr = nil
					break
				}

				lastErr = err
				if attempt < opts.MaxRetries-1 {
					backoff := 1 << uint(attempt) // 1s, 2s, 4s...
					slog.Warn("synthesis failed, retrying",
						"scene", scene.ID,
						"attempt", attempt+1,
						"backoff_sec", backoff,
						"err", err)

					timer := time.NewTimer(time.Duration(backoff) * time.Second)
					select {
					case <-gctx.Done():
						timer.Stop()
						return gctx.Err()
					case <-timer.C:
					}
				}
			}

			if lastErr != nil {
				return fmt.Errorf("scene %q synthesis failed after %d attempts: %w",
					scene.ID, opts.MaxRetries, lastErr)
			}

			mu.Lock()
			results[scene.ID] = Result{SceneID: scene.ID, Path: outPath, Duration: dur}
			mu.Unlock()

			slog.Info("scene audio ready", "scene", scene.ID, "duration_sec", dur)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Durations projects the result map to scene-id -> duration for the
// duration resolver.
func Durations(results map[string]Result) map[string]float64 {
	out := make(map[string]float64, len(results))
	for id, r := range results {
		out[id] = r.Duration
	}
	return out
}

// Paths projects the result map to scene-id -> clip path for the
// compositor.
func Paths(results map[string]Result) map[string]string {
	out := make(map[string]string, len(results))
	for id, r := range results {
		out[id] = r.Path
	}
	return out
}
