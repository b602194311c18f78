package timesync

import (
	"context"
	"time"
)

// Clock supplies the time base for tick scheduling. Production uses the wall
// clock; tests substitute a manual clock so tick counts are exact rather
// than pacing-dependent.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning the context error
	// in the latter case. Non-positive durations return immediately.
	Sleep(ctx context.Context, d time.Duration) error
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
