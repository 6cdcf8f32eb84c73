package resilience

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter caps how many crew runs execute at once using a weighted semaphore.
// A nil *Limiter admits everything.
type Limiter struct {
	sem      *semaphore.Weighted
	limit    int64
	inFlight atomic.Int64
}

// NewLimiter returns a Limiter admitting at most limit concurrent runs, or
// nil (unlimited) when limit is zero or negative.
func NewLimiter(limit int64) *Limiter {
	if limit < 1 {
		return nil
	}
	return &Limiter{sem: semaphore.NewWeighted(limit), limit: limit}
}

// Run acquires a slot, runs fn, and releases the slot.
// Blocks if all slots are busy. Returns ctx.Err() if the context
// is cancelled while waiting for a slot.
func (l *Limiter) Run(ctx context.Context, fn func() error) error {
	if l == nil {
		return fn()
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	l.inFlight.Add(1)
	defer func() {
		l.inFlight.Add(-1)
		l.sem.Release(1)
	}()
	return fn()
}

// InFlight returns the number of runs currently holding a slot.
func (l *Limiter) InFlight() int64 {
	if l == nil {
		return 0
	}
	return l.inFlight.Load()
}

// Limit returns the configured cap, 0 meaning unlimited.
func (l *Limiter) Limit() int64 {
	if l == nil {
		return 0
	}
	return l.limit
}
