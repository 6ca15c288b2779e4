package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		RetryIf:      IsRetryable,
	}
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	err := RetryWithConfig(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("Expected 3 calls, got %d", calls)
	}
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := RetryWithConfig(context.Background(), fastConfig(2), func() error {
		calls++
		return errors.New("still broken")
	})
	if err == nil {
		t.Fatal("Expected an error after exhausting attempts")
	}
	var maxErr ErrMaxRetriesExceeded
	if !errors.As(err, &maxErr) {
		t.Fatalf("Expected ErrMaxRetriesExceeded, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("Expected 2 calls, got %d", calls)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithConfig(ctx, fastConfig(3), func() error { return errors.New("boom") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestContextErrorsAreNotRetryable(t *testing.T) {
	if IsRetryable(context.DeadlineExceeded) {
		t.Fatal("Expected deadline errors to be final")
	}
	if IsRetryable(context.Canceled) {
		t.Fatal("Expected cancellation to be final")
	}
	if !IsRetryable(errors.New("connection refused")) {
		t.Fatal("Expected ordinary errors to be retryable")
	}
}
