package batch

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval keeps uploads under the recognizer's free-tier rate limit.
const DefaultInterval = 1100 * time.Millisecond

// Throttle is a fixed-interval scheduler: successive Wait calls return at least
// interval apart, measured from when the previous Wait actually returned.
type Throttle struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewThrottle returns a Throttle whose first Wait returns immediately.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait blocks until the next slot or until ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		if d := t.interval - time.Since(t.last); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.last = time.Now()
	return nil
}

// Interval is the configured minimum spacing.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}
