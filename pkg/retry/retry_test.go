package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() *Config {
	return &Config{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	}
}

func TestNew_WithNilConfig(t *testing.T) {
	retrier := New(nil)
	if retrier == nil {
		t.Fatal("New(nil) returned nil")
	}
	if retrier.config.InitialInterval != time.Second {
		t.Errorf("InitialInterval = %v, want 1s", retrier.config.InitialInterval)
	}
}

func TestRetrier_Do_Success(t *testing.T) {
	retrier := New(testConfig())

	attempts := 0
	err := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetrier_Do_EventualSuccess(t *testing.T) {
	retrier := New(testConfig())

	attempts := 0
	err := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetrier_Do_MaxRetriesExceeded(t *testing.T) {
	retrier := New(testConfig())

	attempts := 0
	err := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("always fails")
	})

	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Fatalf("Do() error = %v, want ErrMaxRetriesExceeded", err)
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4 (initial + 3 retries)", attempts)
	}
}

func TestRetrier_Do_PermanentError(t *testing.T) {
	retrier := New(testConfig())

	permanent := errors.New("bad request")
	attempts := 0
	err := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(permanent)
	})

	if !errors.Is(err, permanent) {
		t.Fatalf("Do() error = %v, want %v", err, permanent)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retries on permanent error)", attempts)
	}
}

func TestRetrier_Do_ContextCancelled(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      5,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := retrier.Do(ctx, func(ctx context.Context) error {
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
}
