package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"vidbatch/internal/model"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration

	// Test hooks. Nil means real sleeping and random jitter.
	Sleep   func(ctx context.Context, d time.Duration) error
	Jitter  func(max time.Duration) time.Duration
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetryConfig returns the batch defaults: 3 attempts, 1s base delay,
// up to 1s of jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxJitter:   time.Second,
	}
}

// Backoff returns the wait before attempt n+1 (n counts from 1) without jitter.
func (c RetryConfig) Backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	return c.BaseDelay << (n - 1)
}

// Retryable reports whether err is worth another attempt. Authentication,
// configuration and cancellation errors are final.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, model.ErrAuthentication),
		errors.Is(err, model.ErrConfiguration),
		errors.Is(err, model.ErrNoSuitableFormat),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// Retry runs op up to cfg.MaxAttempts times. Before attempt n+1 it waits
// BaseDelay*2^(n-1) plus a uniform jitter in [0, MaxJitter). The last error
// is returned once attempts are exhausted.
func Retry[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	jitter := cfg.Jitter
	if jitter == nil {
		jitter = randomJitter
	}

	var lastErr error
	for n := 1; n <= attempts; n++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !Retryable(err) || n == attempts {
			break
		}

		wait := cfg.Backoff(n)
		if cfg.MaxJitter > 0 {
			wait += jitter(cfg.MaxJitter)
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(n, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

// RetryOption adjusts the policy RetryWithBackoff starts from.
type RetryOption func(*RetryConfig)

// WithPolicy starts from c instead of the defaults.
func WithPolicy(c RetryConfig) RetryOption {
	return func(cfg *RetryConfig) { *cfg = c }
}

// RetryWithBackoff runs op for up to maxAttempts attempts with exponential
// backoff from baseDelay. Without options it uses the default jitter and
// real sleeping.
func RetryWithBackoff[T any](ctx context.Context, op func(ctx context.Context) (T, error), maxAttempts int, baseDelay time.Duration, opts ...RetryOption) (T, error) {
	cfg := DefaultRetryConfig()
	for _, o := range opts {
		o(&cfg)
	}
	cfg.MaxAttempts = maxAttempts
	cfg.BaseDelay = baseDelay
	return Retry(ctx, cfg, op)
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
