package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"vidbatch/internal/model"
)

// recordSleeps returns a RetryConfig that never really sleeps and a pointer
// to the waits it was asked for.
func recordSleeps(max int, base time.Duration) (RetryConfig, *[]time.Duration) {
	var waits []time.Duration
	cfg := RetryConfig{
		MaxAttempts: max,
		BaseDelay:   base,
		MaxJitter:   time.Second,
		Jitter:      func(time.Duration) time.Duration { return 0 },
		Sleep: func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return ctx.Err()
		},
	}
	return cfg, &waits
}

func TestRetry_FailTwiceThenSucceed(t *testing.T) {
	cfg, waits := recordSleeps(3, 100*time.Millisecond)
	calls := 0
	got, err := Retry(context.Background(), cfg, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("%w: connection reset", model.ErrTransfer)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Retry() = %q, want ok", got)
	}
	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(*waits) != len(want) || (*waits)[0] != want[0] || (*waits)[1] != want[1] {
		t.Errorf("waits = %v, want %v", *waits, want)
	}
}

func TestRetry_AlwaysFails(t *testing.T) {
	for _, max := range []int{1, 3, 5} {
		t.Run(fmt.Sprintf("max=%d", max), func(t *testing.T) {
			cfg, waits := recordSleeps(max, time.Millisecond)
			calls := 0
			_, err := Retry(context.Background(), cfg, func(ctx context.Context) (int, error) {
				calls++
				return 0, fmt.Errorf("attempt %d: %w", calls, model.ErrMetadataFetch)
			})
			if calls != max {
				t.Errorf("op called %d times, want %d", calls, max)
			}
			if len(*waits) != max-1 {
				t.Errorf("slept %d times, want %d", len(*waits), max-1)
			}
			if !errors.Is(err, model.ErrMetadataFetch) {
				t.Fatalf("err = %v, want ErrMetadataFetch", err)
			}
			if want := fmt.Sprintf("attempt %d", max); err.Error()[:len(want)] != want {
				t.Errorf("err = %v, want the last attempt's error", err)
			}
		})
	}
}

func TestRetry_FinalErrorsAreNotRetried(t *testing.T) {
	for _, final := range []error{model.ErrAuthentication, model.ErrConfiguration, model.ErrNoSuitableFormat, context.Canceled} {
		t.Run(final.Error(), func(t *testing.T) {
			cfg, _ := recordSleeps(3, time.Millisecond)
			calls := 0
			_, err := Retry(context.Background(), cfg, func(ctx context.Context) (int, error) {
				calls++
				return 0, fmt.Errorf("wrapped: %w", final)
			})
			if calls != 1 {
				t.Errorf("op called %d times, want 1", calls)
			}
			if !errors.Is(err, final) {
				t.Errorf("err = %v, want %v", err, final)
			}
		})
	}
}

func TestRetry_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Hour,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}
	calls := 0
	_, err := Retry(ctx, cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, model.ErrTransfer
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
}

func TestRetry_JitterIsAdded(t *testing.T) {
	cfg, waits := recordSleeps(2, time.Second)
	cfg.Jitter = func(max time.Duration) time.Duration { return max / 4 }
	_, _ = Retry(context.Background(), cfg, func(ctx context.Context) (int, error) {
		return 0, model.ErrTransfer
	})
	if len(*waits) != 1 || (*waits)[0] != 1250*time.Millisecond {
		t.Errorf("waits = %v, want [1.25s]", *waits)
	}
}

func TestRandomJitter_Bounds(t *testing.T) {
	for i := 0; i < 1000; i++ {
		j := randomJitter(time.Second)
		if j < 0 || j >= time.Second {
			t.Fatalf("jitter %v outside [0, 1s)", j)
		}
	}
	if randomJitter(0) != 0 {
		t.Errorf("zero max must give zero jitter")
	}
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := RetryConfig{BaseDelay: time.Second}
	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := cfg.Backoff(tt.n); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestRetryWithBackoff_SucceedsFirstTime(t *testing.T) {
	calls := 0
	got, err := RetryWithBackoff(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	}, 3, time.Millisecond)
	if err != nil || got != 42 || calls != 1 {
		t.Errorf("RetryWithBackoff() = %d, %v after %d calls", got, err, calls)
	}
}

func TestRetryWithBackoff_WithPolicy(t *testing.T) {
	var waits []time.Duration
	policy := RetryConfig{
		MaxJitter: time.Second,
		Jitter:    func(time.Duration) time.Duration { return 0 },
		Sleep: func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}
	calls := 0
	_, err := RetryWithBackoff(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("flaky")
	}, 3, 10*time.Millisecond, WithPolicy(policy))
	if err == nil || calls != 3 {
		t.Fatalf("RetryWithBackoff() err = %v after %d calls", err, calls)
	}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if len(waits) != len(want) || waits[0] != want[0] || waits[1] != want[1] {
		t.Errorf("waits = %v, want %v", waits, want)
	}
}
