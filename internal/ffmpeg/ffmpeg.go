package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Available returns true if ffmpeg is on the PATH.
func Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// probeOutput mirrors ffprobe JSON structure.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration uses ffprobe to get a media file's duration in seconds.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0, fmt.Errorf("ffprobe not found: %w", err)
	}

	cmd := exec.CommandContext(ctx,
		"ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("ffprobe JSON parse error: %w", err)
	}

	dur, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe reported no duration for %s", filepath.Base(path))
	}
	return dur, nil
}

// AudioTrack is one narration clip placed at an absolute offset into the
// output.
type AudioTrack struct {
	Path  string
	Start float64 // seconds from the output's origin
}

// EncodeJob describes one trim-and-overlay encode.
type EncodeJob struct {
	VideoPath  string
	TrimStart  float64 // seconds removed from the front; <= 0 means no trim
	Tracks     []AudioTrack
	FPS        int
	Bitrate    string
	Preset     string
	OutputPath string
}

// BuildEncodeArgs constructs the ffmpeg argument list for an EncodeJob.
// Each audio track is delayed into place with adelay and all tracks are
// mixed with amix, so overlapping tracks mix rather than truncate.
func BuildEncodeArgs(job EncodeJob) []string {
	args := []string{"-y"}

	if job.TrimStart > 0 {
		args = append(args, "-ss", formatSeconds(job.TrimStart))
	}
	args = append(args, "-i", job.VideoPath)

	for _, t := range job.Tracks {
		args = append(args, "-i", t.Path)
	}

	if len(job.Tracks) > 0 {
		var filter strings.Builder
		labels := make([]string, 0, len(job.Tracks))
		for i, t := range job.Tracks {
			ms := int(math.Round(t.Start * 1000))
			label := fmt.Sprintf("a%d", i)
			// adelay needs one value per channel; all|... covers both.
			fmt.Fprintf(&filter, "[%d:a]adelay=%d:all=1[%s];", i+1, ms, label)
			labels = append(labels, "["+label+"]")
		}
		fmt.Fprintf(&filter, "%samix=inputs=%d:normalize=0[mix]", strings.Join(labels, ""), len(job.Tracks))

		args = append(args,
			"-filter_complex", filter.String(),
			"-map", "0:v",
			"-map", "[mix]",
			"-c:a", "aac",
		)
	} else {
		args = append(args, "-map", "0:v")
	}

	args = append(args,
		"-c:v", "libx264",
		"-r", strconv.Itoa(job.FPS),
		"-b:v", job.Bitrate,
		"-preset", job.Preset,
		"-pix_fmt", "yuv420p",
	)
	args = append(args, job.OutputPath)
	return args
}

// Encode runs the trim-and-overlay encode.
func Encode(ctx context.Context, job EncodeJob) error {
	args := BuildEncodeArgs(job)
	slog.Info("encoding output",
		"video", filepath.Base(job.VideoPath),
		"tracks", len(job.Tracks),
		"trim_sec", job.TrimStart)
	slog.Debug("ffmpeg", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg encode failed: %w\n%s", err, out)
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
