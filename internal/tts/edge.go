package tts

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/JamesWuHK/demo-video-generator/internal/ffmpeg"
)

// EdgeEngine shells out to the edge-tts CLI (pip install edge-tts) and
// measures the produced clip with ffprobe.
type EdgeEngine struct {
	Voice  string
	Rate   string // e.g. "+0%", "-10%"
	Volume string
}

// NewEdgeEngine returns an engine for the given voice identifier.
func NewEdgeEngine(voice, rate string) *EdgeEngine {
	if rate == "" {
		rate = "+0%"
	}
	return &EdgeEngine{Voice: voice, Rate: rate, Volume: "+0%"}
}

// Available returns true if the edge-tts CLI is on the PATH.
func (e *EdgeEngine) Available() bool {
	_, err := exec.LookPath("edge-tts")
	return err == nil
}

// Synthesize generates outputPath from text and returns the clip's
// duration in seconds.
func (e *EdgeEngine) Synthesize(ctx context.Context, text, outputPath string) (float64, error) {
	cmd := exec.CommandContext(ctx,
		"edge-tts",
		"--voice", e.Voice,
		"--rate", e.Rate,
		"--volume", e.Volume,
		"--text", text,
		"--write-media", outputPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return 0, fmt.Errorf("edge-tts failed: %w\n%s", err, out)
	}

	dur, err := ffmpeg.ProbeDuration(ctx, outputPath)
	if err != nil {
		return 0, fmt.Errorf("measure clip %s: %w", filepath.Base(outputPath), err)
	}

	slog.Debug("clip synthesized", "path", filepath.Base(outputPath), "duration_sec", dur)
	return dur, nil
}

// Voice is one entry from the edge-tts voice catalog.
type Voice struct {
	Name   string
	Gender string
}

// ListVoices returns the available voices, optionally filtered by locale
// prefix (e.g. "en", "zh-CN").
func ListVoices(ctx context.Context, localePrefix string) ([]Voice, error) {
	cmd := exec.CommandContext(ctx, "edge-tts", "--list-voices")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("edge-tts --list-voices: %w", err)
	}

	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		name := fields[0]
		// Skip the header row and separators.
		if name == "Name" || strings.HasPrefix(name, "-") {
			continue
		}
		if localePrefix != "" && !strings.HasPrefix(name, localePrefix) {
			continue
		}
		voices = append(voices, Voice{Name: name, Gender: fields[1]})
	}
	return voices, scanner.Err()
}
