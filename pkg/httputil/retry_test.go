package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errors.New("transient")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	inner := errors.New("still down")
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return &RetryableError{Err: inner}
	})
	if !errors.Is(err, inner) {
		t.Errorf("err = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Minute, func() error {
		return &RetryableError{Err: errors.New("transient")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRetryableErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &RetryableError{Err: inner}
	if err.Error() != "boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("Unwrap broken")
	}
}
