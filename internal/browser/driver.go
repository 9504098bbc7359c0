package browser

import (
	"context"
	"time"
)

// Driver is the session capability surface the recorder and scheduler
// drive. One driver owns one live session; the recorder has exclusive
// use of it for the duration of a run, and no two scenes ever touch it
// concurrently.
type Driver interface {
	// StartRecording opens the session and begins continuous capture at
	// the given resolution.
	StartRecording(ctx context.Context, width, height int) error

	// StopRecording ends the capture and returns the path of the raw
	// capture artifact. An empty path or error means no artifact exists.
	StopRecording(ctx context.Context) (string, error)

	// Navigate loads url and waits for the page to quiesce.
	Navigate(ctx context.Context, url string) error

	// CurrentURL reports the session's current location.
	CurrentURL(ctx context.Context) (string, error)

	// ScrollTo scrolls the window to absolute offset y. Smooth is an
	// animation hint.
	ScrollTo(ctx context.Context, y float64, smooth bool) error

	// ScrollToText locates the first element containing text and scrolls
	// it into view. Returns an error when no element matches.
	ScrollToText(ctx context.Context, text string) error

	// ScrollBy scrolls the window by a relative offset.
	ScrollBy(ctx context.Context, dy float64) error

	// Click clicks the first element matching text (preferred) or
	// selector, failing if none is found within timeout.
	Click(ctx context.Context, selector, text string, timeout time.Duration) error

	// Fill sets the value of the field matching selector.
	Fill(ctx context.Context, selector, value string) error

	// ScrollIframe scrolls the first embedded frame to the given
	// position. No-op if the page has no frame.
	ScrollIframe(ctx context.Context, y float64) error

	// Close tears down the session.
	Close() error
}
