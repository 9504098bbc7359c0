package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JamesWuHK/demo-video-generator/internal/config"
	"github.com/JamesWuHK/demo-video-generator/internal/ffmpeg"
	"github.com/JamesWuHK/demo-video-generator/internal/worker"
)

var generateCmd = &cobra.Command{
	Use:   "generate <script-file>",
	Short: "Record and compose a demo video from a scene script",
	Long: `Generate parses a YAML or JSON scene script, synthesizes narration for
every scene, records the scripted browser session as one continuous
capture, and merges the narration and subtitles into the final video.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var (
	output       string
	outputDir    string
	headless     bool
	loginURL     string
	loginWaitSec float64
	keepLeadIn   bool
	audioOnly    bool

	maxConcurrent int
	maxRetries    int
	rateLimit     int
	defaultScene  float64
	slowMoMS      int
)

func init() {
	defaults := config.Default()

	generateCmd.Flags().StringVarP(&output, "output", "o", "", "output video path (default: <script>.mp4)")
	generateCmd.Flags().StringVar(&outputDir, "output-dir", "output", "directory for intermediate artifacts")
	generateCmd.Flags().BoolVar(&headless, "headless", defaults.Headless, "run the browser headless")
	generateCmd.Flags().StringVar(&loginURL, "login-url", "", "navigate here and wait before recording (lead-in, trimmed from output)")
	generateCmd.Flags().Float64Var(&loginWaitSec, "login-wait", 15, "seconds to wait for manual login when --login-url is set")
	generateCmd.Flags().BoolVar(&keepLeadIn, "keep-lead-in", false, "do not trim the login phase from the output")
	generateCmd.Flags().BoolVar(&audioOnly, "audio-only", false, "synthesize narration and subtitles without recording")

	generateCmd.Flags().IntVarP(&maxConcurrent, "max-concurrent", "j", defaults.MaxConcurrentSynth, "max concurrent narration syntheses")
	generateCmd.Flags().IntVar(&maxRetries, "max-retries", defaults.MaxRetries, "max retries per narration clip")
	generateCmd.Flags().IntVar(&rateLimit, "rate-limit", defaults.APIRateLimitPerMin, "synthesis requests per minute")
	generateCmd.Flags().Float64Var(&defaultScene, "default-duration", defaults.DefaultSceneDuration, "scene duration when neither narration nor an explicit duration exists")
	generateCmd.Flags().IntVar(&slowMoMS, "slow-mo", defaults.SlowMoMS, "delay after each browser action in milliseconds")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	scriptPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
		return fmt.Errorf("script not found: %s", args[0])
	}

	// Optional environment overrides (browser binary, proxy, etc).
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env")
	}

	if !audioOnly && !ffmpeg.Available() {
		return fmt.Errorf("ffmpeg is required on PATH to assemble and encode the capture")
	}

	cfg := config.Default()
	cfg.Headless = headless
	cfg.MaxConcurrentSynth = maxConcurrent
	cfg.MaxRetries = maxRetries
	cfg.APIRateLimitPerMin = rateLimit
	cfg.DefaultSceneDuration = defaultScene
	cfg.SlowMoMS = slowMoMS

	// Graceful cancellation: an in-progress scene always completes, the
	// next one is refused.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := worker.Options{
		ScriptPath:   scriptPath,
		OutputPath:   output,
		OutputDir:    outputDir,
		LoginURL:     loginURL,
		LoginWaitSec: loginWaitSec,
		KeepLeadIn:   keepLeadIn,
		AudioOnly:    audioOnly,
		Config:       cfg,
	}

	if err := worker.Run(ctx, opts); err != nil {
		return err
	}

	if !quiet {
		slog.Info("done")
	}
	return nil
}
