package timeline

import (
	"context"
	"time"
)

// Clock abstracts the single monotonic time source used by the scheduler
// and recorder, so tests can assert exact scheduling without real waits.
type Clock interface {
	Now() time.Time
	// Sleep suspends for d or until ctx is done. Callers must never pass
	// a negative duration; implementations treat d <= 0 as a no-op.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// NewClock returns the wall-clock implementation.
func NewClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Seconds converts a float second count to a time.Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
