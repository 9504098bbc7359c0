package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JamesWuHK/demo-video-generator/internal/browser"
	"github.com/JamesWuHK/demo-video-generator/internal/script"
	"github.com/JamesWuHK/demo-video-generator/internal/timeline"
)

// ActionError wraps a propagated action failure with its scene and
// action context.
type ActionError struct {
	SceneID string
	Action  script.ActionType
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("scene %q action %s: %v", e.SceneID, e.Action, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Scheduler executes one scene's actions against the session driver,
// staying within the scene's resolved duration, and reports the actual
// elapsed time. Actions may legitimately overrun the budget; the
// remainder pause is skipped in that case, never negative.
type Scheduler struct {
	clock timeline.Clock

	// SettlePause and ShortPause are observed as part of each action's
	// consumed time, matching what a viewer of the capture sees.
	SettlePause time.Duration
	ShortPause  time.Duration
}

// NewScheduler returns a Scheduler on the given clock with stock pauses.
func NewScheduler(clock timeline.Clock) *Scheduler {
	return &Scheduler{
		clock:       clock,
		SettlePause: 500 * time.Millisecond,
		ShortPause:  300 * time.Millisecond,
	}
}

// Execute runs the scene's actions in order, then suspends for whatever
// remains of budget (seconds). It returns the elapsed seconds, which is
// max(budget, consumed) on the scheduler's clock.
func (s *Scheduler) Execute(ctx context.Context, drv browser.Driver, scene script.Scene, budget float64) (float64, error) {
	start := s.clock.Now()

	for _, action := range scene.Actions {
		err := s.perform(ctx, drv, action)
		if err != nil {
			if ctx.Err() != nil {
				return s.clock.Now().Sub(start).Seconds(), ctx.Err()
			}
			if action.Absorbs() {
				slog.Warn("action failed, continuing scene",
					"scene", scene.ID, "action", string(action.Type), "err", err)
				continue
			}
			return s.clock.Now().Sub(start).Seconds(), &ActionError{SceneID: scene.ID, Action: action.Type, Err: err}
		}
	}

	consumed := s.clock.Now().Sub(start)
	if remaining := timeline.Seconds(budget) - consumed; remaining > 0 {
		if err := s.clock.Sleep(ctx, remaining); err != nil {
			return s.clock.Now().Sub(start).Seconds(), err
		}
	}

	return s.clock.Now().Sub(start).Seconds(), nil
}

func (s *Scheduler) perform(ctx context.Context, drv browser.Driver, action script.Action) error {
	switch action.Type {
	case script.ActionScroll:
		if err := drv.ScrollTo(ctx, action.Y, action.Smooth); err != nil {
			return err
		}
		return s.clock.Sleep(ctx, s.SettlePause)

	case script.ActionScrollToText:
		err := drv.ScrollToText(ctx, action.Text)
		if err == nil {
			if err := s.clock.Sleep(ctx, s.ShortPause); err != nil {
				return err
			}
			if err := drv.ScrollBy(ctx, -action.Offset); err != nil {
				return err
			}
		}
		// The settle pause is consumed whether or not the text was found.
		if serr := s.clock.Sleep(ctx, s.SettlePause); serr != nil {
			return serr
		}
		return err

	case script.ActionClick:
		err := drv.Click(ctx, action.Selector, action.Text, time.Duration(action.TimeoutMS)*time.Millisecond)
		if serr := s.clock.Sleep(ctx, s.SettlePause); serr != nil {
			return serr
		}
		return err

	case script.ActionFill:
		if err := drv.Fill(ctx, action.Selector, action.Value); err != nil {
			return err
		}
		return s.clock.Sleep(ctx, s.ShortPause)

	case script.ActionWait:
		// "auto" defers entirely to the remainder budget.
		if action.Auto {
			return nil
		}
		return s.clock.Sleep(ctx, timeline.Seconds(action.Duration))

	case script.ActionGoto:
		if err := drv.Navigate(ctx, action.URL); err != nil {
			return err
		}
		return s.clock.Sleep(ctx, s.SettlePause)

	case script.ActionScrollIframe:
		for _, pos := range action.Positions {
			if err := drv.ScrollIframe(ctx, pos); err != nil {
				return err
			}
			if err := s.clock.Sleep(ctx, timeline.Seconds(action.Interval)); err != nil {
				return err
			}
		}
		return nil

	default:
		// Unknown types are rejected at parse time; reaching here means a
		// hand-built Action bypassed construction.
		return fmt.Errorf("unsupported action type %q", action.Type)
	}
}
