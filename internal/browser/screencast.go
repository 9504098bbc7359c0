package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// screencast collects DevTools screencast frames to disk and assembles
// them into a single continuous capture when recording stops.
type screencast struct {
	framesDir string

	mu     sync.Mutex
	frames []frameMeta
}

type frameMeta struct {
	path string
	at   time.Time
}

func startScreencast(tab context.Context, workDir string, width, height int) (*screencast, error) {
	framesDir := filepath.Join(workDir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}

	sc := &screencast{framesDir: framesDir}

	chromedp.ListenTarget(tab, func(ev interface{}) {
		frame, ok := ev.(*page.EventScreencastFrame)
		if !ok {
			return
		}
		sc.handleFrame(frame.Data, time.Now())

		// Frames stop arriving if they are not acknowledged.
		go chromedp.Run(tab, page.ScreencastFrameAck(frame.SessionID))
	})

	err := chromedp.Run(tab,
		page.StartScreencast().
			WithFormat(page.ScreencastFormatPng).
			WithMaxWidth(int64(width)).
			WithMaxHeight(int64(height)).
			WithEveryNthFrame(1),
	)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// handleFrame persists one screencast frame. The DevTools event carries
// the image as a base64 payload.
func (sc *screencast) handleFrame(data string, at time.Time) {
	payload, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		slog.Warn("drop screencast frame", "err", err)
		return
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	seq := len(sc.frames)
	path := filepath.Join(sc.framesDir, fmt.Sprintf("frame_%06d.png", seq))
	if err := os.WriteFile(path, payload, 0644); err != nil {
		slog.Warn("drop screencast frame", "seq", seq, "err", err)
		return
	}
	sc.frames = append(sc.frames, frameMeta{path: path, at: at})
}

// stop ends the screencast and assembles the frames into a webm capture
// using the ffmpeg concat demuxer, giving each frame its observed
// display duration so the capture tracks wall-clock time.
func (sc *screencast) stop(ctx context.Context, tab context.Context, fps int) (string, error) {
	if err := chromedp.Run(tab, page.StopScreencast()); err != nil {
		slog.Warn("stop screencast", "err", err)
	}

	sc.mu.Lock()
	frames := sc.frames
	sc.mu.Unlock()

	if len(frames) == 0 {
		return "", fmt.Errorf("screencast produced no frames")
	}

	listPath := filepath.Join(sc.framesDir, "frames.txt")
	f, err := os.Create(listPath)
	if err != nil {
		return "", fmt.Errorf("create frame list: %w", err)
	}
	for i, fr := range frames {
		dur := 1.0 / float64(fps)
		if i+1 < len(frames) {
			dur = frames[i+1].at.Sub(fr.at).Seconds()
		}
		if dur <= 0 {
			dur = 1.0 / float64(fps)
		}
		fmt.Fprintf(f, "file '%s'\nduration %.6f\n", filepath.Base(fr.path), dur)
	}
	// Concat demuxer requires the last file listed twice.
	fmt.Fprintf(f, "file '%s'\n", filepath.Base(frames[len(frames)-1].path))
	if err := f.Close(); err != nil {
		return "", err
	}

	capture := filepath.Join(filepath.Dir(sc.framesDir), "capture.webm")
	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vsync", "vfr",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", fps),
		"-y",
		capture,
	)
	cmd.Dir = sc.framesDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("assemble capture: %w\n%s", err, out)
	}

	slog.Debug("capture assembled", "frames", len(frames), "path", capture)
	return capture, nil
}
