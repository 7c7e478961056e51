package stream

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------

// BackoffPolicy controls the pause between reconnect attempts. Injectable so
// tests can substitute a zero-delay policy.
type BackoffPolicy interface {
	Sleep(ctx context.Context)
}

// -----------------------------------------------------------------------------

// FixedBackoff sleeps a constant delay, interruptible by context cancellation.
type FixedBackoff struct {
	Delay time.Duration
}

func (b FixedBackoff) Sleep(ctx context.Context) {
	if b.Delay <= 0 {
		return
	}
	select {
	case <-time.After(b.Delay):
	case <-ctx.Done():
	}
}
