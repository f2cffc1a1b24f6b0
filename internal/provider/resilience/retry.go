package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig configures Retry.
type RetryConfig struct {
	// MaxRetries is the total number of attempts. Values below 1 mean 1.
	MaxRetries int

	// BaseDelay is the delay after the first failed attempt, doubled per attempt.
	BaseDelay time.Duration

	// MaxDelay caps every delay, jitter included.
	MaxDelay time.Duration

	// Jitter is the upper bound of the random amount added to each delay.
	Jitter time.Duration

	// OnRetry is called after a failed attempt, before sleeping.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns 3 attempts, 1s base delay, 10s cap and up to 1s jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Jitter:     time.Second,
	}
}

// Delay returns the wait after failed attempt n (1-based) for the given jitter:
// min(BaseDelay*2^(n-1) + jitter, MaxDelay).
func (c RetryConfig) Delay(attempt int, jitter time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := c.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if c.MaxDelay > 0 && d >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	d += jitter
	if c.MaxDelay > 0 && d > c.MaxDelay {
		return c.MaxDelay
	}
	return d
}

// JitterBackOff is a backoff.BackOff producing RetryConfig delays. It never
// returns backoff.Stop; the attempt ceiling is enforced by the caller.
type JitterBackOff struct {
	cfg     RetryConfig
	attempt int
}

var _ backoff.BackOff = (*JitterBackOff)(nil)

// NewJitterBackOff creates a JitterBackOff for cfg.
func NewJitterBackOff(cfg RetryConfig) *JitterBackOff {
	return &JitterBackOff{cfg: cfg}
}

// NextBackOff returns the next delay.
func (b *JitterBackOff) NextBackOff() time.Duration {
	b.attempt++
	var jitter time.Duration
	if b.cfg.Jitter > 0 {
		jitter = time.Duration(rand.Int64N(int64(b.cfg.Jitter)))
	}
	return b.cfg.Delay(b.attempt, jitter)
}

// Reset restarts the sequence.
func (b *JitterBackOff) Reset() {
	b.attempt = 0
}

// RetryError is returned by Retry once every attempt failed.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// Retry runs op until it succeeds or cfg.MaxRetries attempts have failed, in
// which case a *RetryError wrapping the last error is returned.
//
// Errors marked with backoff.Permanent or ErrCircuitOpen, and any failure after
// ctx is done, stop the loop immediately and are returned unwrapped.
func Retry[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T

	maxAttempts := cfg.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	bo := NewJitterBackOff(cfg)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx, attempt)
		if err == nil {
			return result, nil
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return zero, permanent.Err
		}
		if errors.Is(err, ErrCircuitOpen) || ctx.Err() != nil {
			return zero, err
		}

		lastErr = err
		if attempt == maxAttempts {
			break
		}

		delay := bo.NextBackOff()
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, &RetryError{Attempts: maxAttempts, Err: lastErr}
}
