// Package resilience provides the retry policy and circuit breaker wrapped
// around every outbound call.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig is an explicit retry policy: how many attempts, how long to
// wait between them, and which errors are worth another try.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// InitialBackoff is the delay after the first failed attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay. Zero means uncapped.
	MaxBackoff time.Duration

	// Multiplier scales the delay after each attempt. Default: 2.
	Multiplier float64

	// JitterFraction adds ±fraction random jitter. Zero disables it.
	JitterFraction float64

	// ShouldRetry decides whether err is retryable. Nil means IsTransient.
	ShouldRetry func(err error) bool

	// OnRetry is called before each sleep with the attempt number and error.
	OnRetry func(attempt int, err error)

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryConfig returns the policy used for API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

// FixedBackoff returns a jitter-free policy sleeping base*2^attempt between
// attempts and retrying every error.
func FixedBackoff(attempts int, base time.Duration) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: base,
		Multiplier:     2.0,
		ShouldRetry:    Always,
	}
}

// Always retries any non-nil error.
func Always(err error) bool { return err != nil }

// Backoff returns the delay after the given zero-based failed attempt.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	c = applyDefaults(c)
	delay := float64(c.InitialBackoff) * math.Pow(c.Multiplier, float64(attempt))
	if c.MaxBackoff > 0 && delay > float64(c.MaxBackoff) {
		delay = float64(c.MaxBackoff)
	}
	if c.JitterFraction > 0 {
		spread := delay * c.JitterFraction
		delay += (rand.Float64()*2 - 1) * spread
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Do runs fn until it succeeds, returns a non-retryable error, the context
// ends, or the attempts are exhausted. It never sleeps after the last attempt.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for functions returning a value.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = applyDefaults(cfg)

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !cfg.ShouldRetry(err) || attempt == cfg.MaxAttempts-1 {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}
		if cfg.sleep(ctx, cfg.Backoff(attempt)) != nil {
			break
		}
	}
	return zero, lastErr
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff < 0 {
		cfg.InitialBackoff = 0
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = IsTransient
	}
	if cfg.sleep == nil {
		cfg.sleep = sleepCtx
	}
	return cfg
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryLogger returns an OnRetry callback that logs each retry at debug level.
func RetryLogger(service, target string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Debug("retrying",
			zap.String("service", service),
			zap.String("target", target),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
