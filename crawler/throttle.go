package crawler

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay is the minimum spacing between request starts within a crawl.
const DefaultDelay = time.Second

// Clock is the time source used for politeness spacing.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// throttle spaces request starts at least delay apart. One throttle is shared
// by every worker of a crawl. The slot is reserved before sleeping, so spacing
// is measured between request starts.
type throttle struct {
	limiter *rate.Limiter
	clock   Clock
}

func newThrottle(delay time.Duration, clock Clock) *throttle {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &throttle{
		limiter: rate.NewLimiter(limit, 1),
		clock:   clock,
	}
}

// Wait blocks until the caller may start its request.
func (t *throttle) Wait(ctx context.Context) error {
	now := t.clock.Now()
	r := t.limiter.ReserveN(now, 1)
	if !r.OK() {
		return errors.New("throttle: reservation refused")
	}
	d := r.DelayFrom(now)
	if d <= 0 {
		return ctx.Err()
	}
	if err := t.clock.Sleep(ctx, d); err != nil {
		r.CancelAt(t.clock.Now())
		return err
	}
	return nil
}

// Spend takes the next slot without waiting, for a request that already
// started outside the throttle.
func (t *throttle) Spend() {
	t.limiter.ReserveN(t.clock.Now(), 1)
}
