package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestAcquire_UnderLimit(t *testing.T) {
	l := PerSecond(10)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("5 acquires under a 10/s limit took %v, expected near-zero", elapsed)
	}
}

func TestAcquire_BlocksWhenWindowFull(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing test in short mode")
	}

	// 2 permits per 2s: the first two acquires are immediate, the third
	// must wait for the first permit to leave the window.
	l := New(2, 2*time.Second)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed < 1500*time.Millisecond {
		t.Errorf("3rd acquire completed after %v, expected at least 1.5s", elapsed)
	}
}

func TestAcquire_ContextCanceled(t *testing.T) {
	l := New(1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	cancel()
	if err := l.Acquire(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAcquire_ConcurrentCallers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing test in short mode")
	}

	l := New(5, 500*time.Millisecond)
	ctx := context.Background()

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(ctx); err != nil {
				t.Errorf("acquire failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// 10 acquires at 5 per 500ms need at least one extra window.
	if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
		t.Errorf("10 concurrent acquires took %v, expected at least ~500ms", elapsed)
	}
}

func TestNew_DefensiveDefaults(t *testing.T) {
	l := New(0, -time.Second)
	if l.Permits() != 1 {
		t.Errorf("permits = %d, want 1", l.Permits())
	}
	if l.Window() != time.Second {
		t.Errorf("window = %v, want 1s", l.Window())
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTryAcquire_SlidingWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	l := NewWithClock(2, 2*time.Second, clock)

	if _, ok := l.tryAcquire(); !ok {
		t.Fatal("1st acquire should succeed")
	}
	if _, ok := l.tryAcquire(); !ok {
		t.Fatal("2nd acquire should succeed")
	}

	wait, ok := l.tryAcquire()
	if ok {
		t.Fatal("3rd acquire should be denied inside the window")
	}
	if wait != 2*time.Second {
		t.Errorf("wait = %v, want 2s", wait)
	}

	clock.advance(2 * time.Second)
	if _, ok := l.tryAcquire(); !ok {
		t.Error("acquire should succeed after the window slides")
	}
}

func TestTryAcquire_ClockSkew(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	l := NewWithClock(1, time.Second, clock)

	if _, ok := l.tryAcquire(); !ok {
		t.Fatal("1st acquire should succeed")
	}

	// Clock moves backwards: the limiter must not hand out an extra permit.
	clock.advance(-10 * time.Second)
	if _, ok := l.tryAcquire(); ok {
		t.Error("acquire succeeded despite backwards clock")
	}
}
