package retry

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"regharvest/internal/domain/entity"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   10 * time.Millisecond,
		MaxDelay:       100 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestWithBackoff_Success(t *testing.T) {
	attempts := 0
	fn := func() error {
		attempts++
		return nil
	}

	err := WithBackoff(context.Background(), fastConfig(), "test-op", fn)

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithBackoff_SuccessAfterRetry(t *testing.T) {
	attempts := 0
	fn := func() error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 500, Message: "Server Error"}
		}
		return nil
	}

	err := WithBackoff(context.Background(), fastConfig(), "test-op", fn)

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithBackoff_MaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	testErr := entity.Transient(errors.New("connection reset"))
	fn := func() error {
		attempts++
		return testErr
	}

	err := WithBackoff(context.Background(), fastConfig(), "test-op", fn)

	if err == nil {
		t.Error("expected error, got nil")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if !errors.Is(err, testErr) {
		t.Error("expected wrapped error to contain original error")
	}
}

func TestWithBackoff_TerminalNotRetried(t *testing.T) {
	attempts := 0
	testErr := entity.Terminal(errors.New("invalid argument"))
	fn := func() error {
		attempts++
		return testErr
	}

	err := WithBackoff(context.Background(), fastConfig(), "test-op", fn)

	if err == nil {
		t.Error("expected error, got nil")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt (terminal), got %d", attempts)
	}
	if !errors.Is(err, testErr) {
		t.Error("expected original error back")
	}
}

func TestWithBackoff_RetryAfterHint(t *testing.T) {
	attempts := 0
	hint := 50 * time.Millisecond
	fn := func() error {
		attempts++
		if attempts == 1 {
			return &HTTPError{StatusCode: 429, Message: "Too Many Requests", RetryAfter: hint}
		}
		return nil
	}

	start := time.Now()
	err := WithBackoff(context.Background(), Config{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Millisecond, // hint must override this
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}, "test-op", fn)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < hint {
		t.Errorf("retried after %v, expected at least the %v hint", elapsed, hint)
	}
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	fn := func() error {
		attempts++
		return entity.Transient(errors.New("timeout"))
	}

	err := WithBackoff(ctx, fastConfig(), "test-op", fn)

	if err == nil {
		t.Error("expected error, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient category", entity.Transient(errors.New("reset")), true},
		{"terminal category", entity.Terminal(errors.New("bad request")), false},
		{"local io category", entity.LocalIO(errors.New("disk full")), false},
		{"data shape category", entity.DataShape(errors.New("bad row")), false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"http 500", &HTTPError{StatusCode: 500, Message: "boom"}, true},
		{"http 429", &HTTPError{StatusCode: 429, Message: "slow down"}, true},
		{"http 408", &HTTPError{StatusCode: 408, Message: "timeout"}, true},
		{"http 404", &HTTPError{StatusCode: 404, Message: "not found"}, false},
		{"http 400", &HTTPError{StatusCode: 400, Message: "bad request"}, false},
		{"plain error", errors.New("something"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestAddJitter(t *testing.T) {
	base := 100 * time.Millisecond

	for i := 0; i < 50; i++ {
		jittered := addJitter(base, 0.1)
		if jittered < base || jittered > base+base/10 {
			t.Fatalf("jittered delay %v outside [%v, %v]", jittered, base, base+base/10)
		}
	}

	if addJitter(base, 0) != base {
		t.Error("zero jitter fraction should return the base delay")
	}
}
