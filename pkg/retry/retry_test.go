package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySuccessOnFirstTry(t *testing.T) {
	retrier := NewDefaultRetrier()

	attempts := 0
	err := retrier.Do(context.Background(), func() error {
		attempts++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetrySuccessAfterTransientFailure(t *testing.T) {
	retrier := NewDefaultRetrier()

	attempts := 0
	err := retrier.Do(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetryReturnsLastErrorWhenExhausted(t *testing.T) {
	config := NewDefaultConfig()
	config.MaxRetries = 2
	config.InitialDelay = time.Millisecond
	config.Jitter = time.Millisecond
	retrier := NewRetrier(config)

	wantErr := errors.New("permanent")
	attempts := 0
	err := retrier.Do(context.Background(), func() error {
		attempts++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}
	// Initial try plus MaxRetries.
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	retrier := NewDefaultRetrier()

	err := retrier.Do(ctx, func() error {
		cancel()
		return errors.New("failed after cancel")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRetryBackoffTiming(t *testing.T) {
	config := &Config{
		MaxRetries:    2,
		BackoffFactor: 2.0,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		Jitter:        50 * time.Millisecond,
	}
	retrier := NewRetrier(config)

	start := time.Now()
	attempts := 0
	_ = retrier.Do(context.Background(), func() error {
		attempts++
		return errors.New("failing")
	})
	elapsed := time.Since(start)

	// Two sleeps happen: 100ms and 200ms, each plus up to 50ms jitter.
	min := 300 * time.Millisecond
	max := 400*time.Millisecond + 50*time.Millisecond
	if elapsed < min || elapsed > max {
		t.Errorf("expected total delay between %v and %v, got %v", min, max, elapsed)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}
