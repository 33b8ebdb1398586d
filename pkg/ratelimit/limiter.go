// Package ratelimit provides a blocking sliding-window rate limiter for
// outbound calls. Unlike a token bucket, the sliding window guarantees that
// no more than N operations complete within any window of the configured
// length, which is the contract remote regulatory endpoints enforce.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Limiter is a blocking sliding-window rate limiter.
//
// The limiter is safe for concurrent use. The reference pipeline calls it
// from a single goroutine, but it is a shared component and future callers
// may acquire from multiple workers.
type Limiter struct {
	clock   Clock
	permits int
	window  time.Duration

	mu sync.Mutex
	// stamps is a ring of the last `permits` acquisition times; the slot at
	// `next` is always the oldest. A zero time means the slot is unused.
	stamps []time.Time
	next   int

	// lastSeen guards against the system clock moving backwards; a skewed
	// Now() is clamped to the last observed time.
	lastSeen time.Time
}

// New creates a limiter allowing at most permits operations per window.
// permits below 1 is treated as 1; a non-positive window as one second.
func New(permits int, window time.Duration) *Limiter {
	return NewWithClock(permits, window, SystemClock{})
}

// PerSecond creates a limiter allowing at most n operations per second.
func PerSecond(n int) *Limiter {
	return New(n, time.Second)
}

// NewWithClock creates a limiter with an injected clock, for tests.
func NewWithClock(permits int, window time.Duration, clock Clock) *Limiter {
	if permits < 1 {
		permits = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Limiter{
		clock:   clock,
		permits: permits,
		window:  window,
		stamps:  make([]time.Time, permits),
	}
}

// Acquire blocks the caller until a permit is available. It never fails on
// its own; the only error it can return is the context's, when the caller is
// canceled while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		wait, ok := l.tryAcquire()
		if ok {
			return nil
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// tryAcquire takes a permit if one is free. When the window is full it
// returns the duration until the oldest acquisition leaves the window.
func (l *Limiter) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	oldest := l.stamps[l.next]
	if oldest.IsZero() || now.Sub(oldest) >= l.window {
		l.stamps[l.next] = now
		l.next = (l.next + 1) % l.permits
		return 0, true
	}

	return l.window - now.Sub(oldest), false
}

// now returns the validated current time, clamped so it never moves
// backwards across calls.
func (l *Limiter) now() time.Time {
	now := l.clock.Now()
	if now.Before(l.lastSeen) {
		slog.Warn("clock moved backwards, clamping to last seen time",
			slog.Time("now", now),
			slog.Time("last_seen", l.lastSeen))
		return l.lastSeen
	}
	l.lastSeen = now
	return now
}

// Permits returns the configured permit count.
func (l *Limiter) Permits() int {
	return l.permits
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}
