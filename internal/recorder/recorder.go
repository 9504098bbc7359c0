package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JamesWuHK/demo-video-generator/internal/browser"
	"github.com/JamesWuHK/demo-video-generator/internal/script"
	"github.com/JamesWuHK/demo-video-generator/internal/timeline"
)

// ErrRecordingFailed means the session closed without producing a
// capture artifact. There is no partial-recording recovery.
var ErrRecordingFailed = errors.New("recording failed")

// LoginFunc performs an optional setup phase against the live session
// before scene recording starts. Its elapsed time becomes the lead-in
// that is later trimmed from the final output.
type LoginFunc func(ctx context.Context, drv browser.Driver) error

// Result is owned by the recorder until handed to the compositor, which
// never mutates it.
type Result struct {
	CapturePath    string
	Timestamps     timeline.Map
	TotalDuration  float64
	LeadInDuration float64
}

// Recorder drives one continuous session-level recording across all
// scenes in order. Scenes execute strictly sequentially: the capture is
// a single continuous stream simulating one user session, and concurrent
// navigation against one session handle is undefined.
type Recorder struct {
	drv       browser.Driver
	clock     timeline.Clock
	scheduler *Scheduler

	// Width and Height of the capture.
	Width, Height int
}

// New returns a Recorder over the given driver and clock.
func New(drv browser.Driver, clock timeline.Clock, width, height int) *Recorder {
	return &Recorder{
		drv:       drv,
		clock:     clock,
		scheduler: NewScheduler(clock),
		Width:     width,
		Height:    height,
	}
}

// Scheduler exposes the recorder's scheduler for pause tuning.
func (r *Recorder) Scheduler() *Scheduler { return r.scheduler }

// Record runs the full recording session: optional login phase, then
// every scene in order with its resolved duration as the budget.
// Cancellation is honored between scenes only; an in-progress scene runs
// to completion so offset bookkeeping stays atomic.
func (r *Recorder) Record(ctx context.Context, scenes []script.Scene, durations map[string]float64, login LoginFunc) (*Result, error) {
	if err := r.drv.StartRecording(ctx, r.Width, r.Height); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordingFailed, err)
	}
	defer r.drv.Close()

	res := &Result{}

	// The recording origin is the capture's own start. The login phase is
	// part of the capture, so scene starts include the lead-in; the
	// compositor removes it exactly once via the trim.
	origin := r.clock.Now()

	if login != nil {
		slog.Info("performing login phase")
		if err := login(ctx, r.drv); err != nil {
			return nil, fmt.Errorf("login phase: %w", err)
		}
		res.LeadInDuration = r.clock.Now().Sub(origin).Seconds()
		slog.Info("login phase complete", "lead_in_sec", res.LeadInDuration)
	}

	for i, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		budget := durations[scene.ID]
		slog.Info("scene start", "scene", scene.ID, "index", i+1, "total", len(scenes), "budget_sec", budget)

		r.navigateIfNeeded(ctx, scene)

		start := r.clock.Now().Sub(origin).Seconds()
		res.Timestamps.Append(timeline.Entry{
			SceneID:       scene.ID,
			Start:         start,
			AudioDuration: budget,
		})

		elapsed, err := r.scheduler.Execute(ctx, r.drv, scene, budget)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", scene.ID, err)
		}
		if elapsed > budget {
			slog.Debug("scene overran budget", "scene", scene.ID, "elapsed_sec", elapsed, "budget_sec", budget)
		}
	}

	res.TotalDuration = r.clock.Now().Sub(origin).Seconds()

	capture, err := r.drv.StopRecording(ctx)
	if err != nil || capture == "" {
		return nil, fmt.Errorf("%w: no capture artifact: %v", ErrRecordingFailed, err)
	}
	res.CapturePath = capture

	slog.Info("recording complete",
		"scenes", len(scenes),
		"total_sec", res.TotalDuration,
		"lead_in_sec", res.LeadInDuration,
		"capture", capture)
	return res, nil
}

// navigateIfNeeded navigates to the scene's url when it differs from the
// current location. A url that only adds a fragment still navigates so
// the in-page anchor takes effect; a failed navigation is logged and the
// scene proceeds with whatever state the session already has.
func (r *Recorder) navigateIfNeeded(ctx context.Context, scene script.Scene) {
	if scene.URL == "" {
		return
	}

	current, err := r.drv.CurrentURL(ctx)
	if err != nil {
		slog.Warn("current url unavailable, navigating anyway", "scene", scene.ID, "err", err)
		current = ""
	}

	if stripFragment(current) == stripFragment(scene.URL) && !strings.Contains(scene.URL, "#") {
		return
	}

	if err := r.drv.Navigate(ctx, scene.URL); err != nil {
		slog.Warn("navigation failed, continuing scene in current state",
			"scene", scene.ID, "url", scene.URL, "err", err)
	}
}

func stripFragment(url string) string {
	if i := strings.IndexByte(url, '#'); i >= 0 {
		return url[:i]
	}
	return url
}
