package inbox

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Limiter is a bounded counting resource guarding the expensive
// composition and snapshot paths against draining the store's
// connection pool. Acquisition blocks rather than fails when exhausted.
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter creates a limiter with the given capacity.
func NewLimiter(capacity int64) *Limiter {
	if capacity <= 0 {
		capacity = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(capacity)}
}

// Acquire blocks until a slot is free or ctx is done. The returned
// release function is safe to call exactly once and must be called on
// every exit path.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() { l.sem.Release(1) })
	}, nil
}

// Singleton instance variables. The process owns a single limiter,
// constructed once from startup configuration.
var (
	storeLimiter     *Limiter
	storeLimiterOnce sync.Once
)

// InitStoreLimiter initializes the process-wide store limiter. Safe to
// call multiple times; only the first call takes effect.
func InitStoreLimiter(capacity int64) {
	storeLimiterOnce.Do(func() {
		storeLimiter = NewLimiter(capacity)
	})
}

// StoreLimiter returns the process-wide limiter, lazily constructing it
// with a default capacity if InitStoreLimiter was never called.
func StoreLimiter() *Limiter {
	storeLimiterOnce.Do(func() {
		storeLimiter = NewLimiter(32)
	})
	return storeLimiter
}
