// Package worker is the top-level orchestrator: it wires script parsing,
// narration synthesis, duration resolution, recording, composition and
// subtitle emission into one run.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JamesWuHK/demo-video-generator/internal/browser"
	"github.com/JamesWuHK/demo-video-generator/internal/compositor"
	"github.com/JamesWuHK/demo-video-generator/internal/config"
	"github.com/JamesWuHK/demo-video-generator/internal/ffmpeg"
	"github.com/JamesWuHK/demo-video-generator/internal/recorder"
	"github.com/JamesWuHK/demo-video-generator/internal/script"
	"github.com/JamesWuHK/demo-video-generator/internal/subtitle"
	"github.com/JamesWuHK/demo-video-generator/internal/timeline"
	"github.com/JamesWuHK/demo-video-generator/internal/tts"
)

// Options configures one generation run.
type Options struct {
	ScriptPath string
	OutputPath string
	OutputDir  string

	// LoginURL, when set, enables the lead-in phase: the session
	// navigates there and waits LoginWaitSec for a manual login before
	// scene recording starts. The lead-in is trimmed from the output.
	LoginURL     string
	LoginWaitSec float64
	KeepLeadIn   bool

	// AudioOnly skips recording and emits narration clips plus an SRT
	// built from a synthetic timeline, for fast script iteration.
	AudioOnly bool

	Config *config.Config
}

// Run executes the full pipeline for one script.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	s, err := script.Parse(opts.ScriptPath)
	if err != nil {
		return err
	}
	slog.Info("script loaded",
		"project", s.Project.Name,
		"scenes", len(s.Scenes),
		"resolution", fmt.Sprintf("%dx%d", s.Project.Resolution[0], s.Project.Resolution[1]))

	outputPath := opts.OutputPath
	if outputPath == "" {
		base := strings.TrimSuffix(filepath.Base(opts.ScriptPath), filepath.Ext(opts.ScriptPath))
		outputPath = base + ".mp4"
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "output"
	}
	workDir := filepath.Join(outputDir, "run_"+uuid.NewString()[:8])
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	slog.Debug("work dir created", "path", workDir)

	// Phase 1: synthesize all narration concurrently. Recording cannot
	// start a scene's timed budget until its resolved duration is known.
	audioDir := filepath.Join(workDir, "audio")
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}

	engine := tts.NewEdgeEngine(s.Project.Voice, s.Project.VoiceRate)
	clips, err := tts.SynthesizeAll(ctx, s.Scenes, engine, audioDir, tts.PoolOptions{
		MaxConcurrent:   cfg.MaxConcurrentSynth,
		MaxRetries:      cfg.MaxRetries,
		RateLimitPerMin: cfg.APIRateLimitPerMin,
	})
	if err != nil {
		return fmt.Errorf("narration synthesis: %w", err)
	}

	durations := timeline.Resolve(s.Scenes, tts.Durations(clips), cfg.DefaultSceneDuration)

	if opts.AudioOnly {
		return emitAudioOnly(s, durations, outputPath)
	}

	// Phase 2: one continuous, strictly sequential recording session.
	drv := browser.NewChromeDriver(browser.Options{
		Headless: cfg.Headless,
		SlowMo:   timeline.Seconds(float64(cfg.SlowMoMS) / 1000.0),
		WorkDir:  workDir,
		FPS:      s.Project.FPS,
	})

	clock := timeline.NewClock()
	rec := recorder.New(drv, clock, s.Project.Resolution[0], s.Project.Resolution[1])
	rec.Scheduler().SettlePause = timeline.Seconds(cfg.SettlePause)
	rec.Scheduler().ShortPause = timeline.Seconds(cfg.ShortPause)

	var login recorder.LoginFunc
	if opts.LoginURL != "" {
		loginURL := opts.LoginURL
		waitSec := opts.LoginWaitSec
		login = func(ctx context.Context, drv browser.Driver) error {
			if err := drv.Navigate(ctx, loginURL); err != nil {
				return err
			}
			slog.Info("waiting for manual login", "sec", waitSec)
			return clock.Sleep(ctx, timeline.Seconds(waitSec))
		}
	}

	res, err := rec.Record(ctx, s.Scenes, durations, login)
	if err != nil {
		return err
	}

	tsPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".timestamps.json"
	if err := res.Timestamps.WriteFile(tsPath); err != nil {
		slog.Warn("failed to persist timestamp map", "err", err)
	} else {
		slog.Info("timestamp map saved", "path", tsPath)
	}

	// Phase 3: composite audio onto the trimmed capture.
	trim := res.LeadInDuration
	if opts.KeepLeadIn {
		trim = 0
	}

	comp := compositor.New(compositor.EncoderFunc(ffmpeg.Encode))
	err = comp.Compose(ctx, compositor.Job{
		CapturePath: res.CapturePath,
		Timestamps:  &res.Timestamps,
		AudioPaths:  tts.Paths(clips),
		TrimStart:   trim,
		FPS:         s.Project.FPS,
		Bitrate:     s.Project.Bitrate,
		Preset:      cfg.Preset,
		OutputPath:  outputPath,
	})
	if err != nil {
		return err
	}

	// Subtitles follow the same timeline as the trimmed output.
	if err := writeSubtitles(s, res.Timestamps.Shifted(-trim), outputPath); err != nil {
		return err
	}

	slog.Info("video generated", "output", outputPath)
	return nil
}

// emitAudioOnly builds a synthetic timestamp map (scenes back to back)
// and writes only the subtitle file, leaving the clips in place.
func emitAudioOnly(s *script.Script, durations map[string]float64, outputPath string) error {
	var m timeline.Map
	start := 0.0
	for _, scene := range s.Scenes {
		d := durations[scene.ID]
		m.Append(timeline.Entry{SceneID: scene.ID, Start: start, AudioDuration: d})
		start += d
	}

	if err := writeSubtitles(s, m.Entries(), outputPath); err != nil {
		return err
	}
	slog.Info("audio-only run complete", "total_sec", start)
	return nil
}

func writeSubtitles(s *script.Script, entries []timeline.Entry, outputPath string) error {
	srtPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".srt"
	if err := subtitle.WriteFile(srtPath, entries, s.Narrations()); err != nil {
		return fmt.Errorf("write subtitles: %w", err)
	}
	slog.Info("subtitles saved", "path", srtPath)
	return nil
}
