package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/spigell/hh-matcher/internal/utils"
)

type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Factor       float64       `mapstructure:"factor"`
	// Jitter adds up to this fraction of the delay, e.g. 0.1 for 10%.
	Jitter float64 `mapstructure:"jitter"`
	// Retryable decides whether an error deserves another attempt. Nil retries
	// everything except ErrOpen and context errors.
	Retryable func(error) bool `mapstructure:"-"`
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
		Factor:       2,
		Jitter:       0.1,
	}
}

// Retry calls fn until it succeeds, the attempts are exhausted or ctx ends.
// It returns the last error.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Factor < 1 {
		cfg.Factor = def.Factor
	}
	if cfg.Retryable == nil {
		cfg.Retryable = defaultRetryable
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !cfg.Retryable(err) || attempt == cfg.MaxAttempts-1 {
			break
		}

		if err := utils.WaitFor(ctx, withJitter(Backoff(cfg, attempt), cfg.Jitter)); err != nil {
			return lastErr
		}
	}

	return lastErr
}

// Backoff returns the delay after the given zero-based attempt.
func Backoff(cfg RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Factor, float64(attempt)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}

func withJitter(delay time.Duration, frac float64) time.Duration {
	if frac <= 0 || delay <= 0 {
		return delay
	}
	return delay + time.Duration(float64(delay)*frac*rand.Float64())
}

func defaultRetryable(err error) bool {
	return !errors.Is(err, ErrOpen) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
