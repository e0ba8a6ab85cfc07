package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// noSleep collects requested backoff durations without sleeping.
func noSleep(slept *[]time.Duration) func(context.Context, time.Duration) {
	return func(_ context.Context, d time.Duration) {
		*slept = append(*slept, d)
	}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), DefaultRetryConfig(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessAfterRetry(t *testing.T) {
	var calls int
	var slept []time.Duration
	cfg := RetryConfig{MaxAttempts: 3, Delay: 5 * time.Second, Sleep: noSleep(&slept)}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("temporary"), 503)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_LinearBackoff(t *testing.T) {
	var slept []time.Duration
	cfg := RetryConfig{MaxAttempts: 3, Delay: 5 * time.Second, Sleep: noSleep(&slept)}

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		return NewTransientError(errors.New("always fails"), 500)
	})

	want := []time.Duration{5 * time.Second, 10 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(slept))
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep %d: expected %v, got %v", i, want[i], slept[i])
		}
	}
}

func TestDo_RateLimitBackoff(t *testing.T) {
	var slept []time.Duration
	cfg := RetryConfig{
		MaxAttempts:    3,
		Delay:          5 * time.Second,
		RateLimitDelay: 60 * time.Second,
		Sleep:          noSleep(&slept),
	}

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		return NewRateLimitError(errors.New("quota exhausted"))
	})

	want := []time.Duration{60 * time.Second, 120 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(slept))
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep %d: expected %v, got %v", i, want[i], slept[i])
		}
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	var calls int
	var slept []time.Duration
	cfg := RetryConfig{MaxAttempts: 3, Delay: time.Second, Sleep: noSleep(&slept)}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return NewTransientError(errors.New("always fails"), 500)
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_NonTransientError_NoRetry(t *testing.T) {
	var calls int
	cfg := RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return errors.New("permanent error: bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retry for non-transient), got %d", calls)
	}
}

func TestDo_ContextCancelled_StopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	var slept []time.Duration
	cfg := RetryConfig{MaxAttempts: 5, Delay: time.Millisecond, Sleep: noSleep(&slept)}

	err := Do(ctx, cfg, func(_ context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return NewTransientError(errors.New("fail"), 500)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Errorf("expected 2 calls after cancel, got %d", calls)
	}
}

func TestDo_CustomShouldRetry(t *testing.T) {
	var calls int
	retryable := errors.New("retry me")
	cfg := RetryConfig{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
		Sleep:       func(context.Context, time.Duration) {},
		ShouldRetry: func(err error) bool { return errors.Is(err, retryable) },
	}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return retryable
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls with custom predicate, got %d", calls)
	}
}

func TestDoVal_ReturnsValue(t *testing.T) {
	var calls int
	var slept []time.Duration
	cfg := RetryConfig{MaxAttempts: 3, Delay: time.Second, Sleep: noSleep(&slept)}

	val, err := DoVal(context.Background(), cfg, func(_ context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, NewTransientError(errors.New("flaky"), 502)
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := RetryConfig{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
		Sleep:       func(context.Context, time.Duration) {},
		OnRetry:     func(attempt int, _ error) { attempts = append(attempts, attempt) },
	}

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		return NewTransientError(errors.New("fail"), 500)
	})

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected callbacks for attempts [1 2], got %v", attempts)
	}
}
