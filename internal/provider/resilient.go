package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/hh-matcher/internal/geo"
	"github.com/spigell/hh-matcher/internal/logger"
	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/profile"
	"github.com/spigell/hh-matcher/internal/resilience"
)

type GuardConfig struct {
	Breaker resilience.BreakerConfig `mapstructure:"breaker"`
	Retry   resilience.RetryConfig   `mapstructure:"retry"`
	// RatePerSecond of zero disables rate limiting.
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
	// CallTimeout bounds a single attempt.
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// Guard applies rate limiting, retries and circuit breaking to provider calls
// and maps failures onto ErrProviderTimeout and ErrProviderUnavailable.
type Guard struct {
	name    string
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
	limiter *rate.Limiter
	timeout time.Duration
	log     *zap.Logger
}

func NewGuard(name string, cfg GuardConfig, now func() time.Time, log *zap.Logger) *Guard {
	g := &Guard{
		name:    name,
		breaker: resilience.NewBreaker(cfg.Breaker, now),
		retry:   cfg.Retry,
		timeout: cfg.CallTimeout,
		log:     logger.WithFields(log, logger.ProviderFields(name, "")...),
	}

	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(math.Max(1, math.Ceil(cfg.RatePerSecond)))
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return g
}

func (g *Guard) State() resilience.State {
	return g.breaker.State()
}

// Run executes fn with the guard's policies.
func (g *Guard) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return g.classify(ctx, err)
		}
	}

	retry := g.retry
	retry.Retryable = func(err error) bool {
		return !errors.Is(err, resilience.ErrOpen) && ctx.Err() == nil
	}

	var unsupported error
	err := resilience.Retry(ctx, retry, func(ctx context.Context) error {
		return g.breaker.Do(func() error {
			callCtx := ctx
			if g.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, g.timeout)
				defer cancel()
			}
			err := fn(callCtx)
			if errors.Is(err, ErrUnsupported) {
				unsupported = err
				return nil
			}
			return err
		})
	})
	if unsupported != nil {
		g.log.Debug("provider does not serve the request", zap.Error(unsupported))
		return fmt.Errorf("%s: %w", g.name, unsupported)
	}

	return g.classify(ctx, err)
}

func (g *Guard) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, resilience.ErrOpen):
		g.log.Error("provider circuit open", zap.Error(err))
		return fmt.Errorf("%w: %s: %v", match.ErrProviderUnavailable, g.name, err)
	case isTimeout(err) || ctx.Err() != nil:
		g.log.Warn("provider timed out", zap.Error(err))
		return fmt.Errorf("%w: %s: %v", match.ErrProviderTimeout, g.name, err)
	default:
		g.log.Warn("provider call failed", zap.Error(err))
		return fmt.Errorf("%w: %s: %v", match.ErrProviderUnavailable, g.name, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ResilientSimilarity guards a Similarity provider.
type ResilientSimilarity struct {
	inner Similarity
	guard *Guard
}

func NewResilientSimilarity(inner Similarity, cfg GuardConfig, now func() time.Time, log *zap.Logger) *ResilientSimilarity {
	return &ResilientSimilarity{
		inner: inner,
		guard: NewGuard(inner.Name(), cfg, now, log),
	}
}

func (r *ResilientSimilarity) Similarity(ctx context.Context, a, b string) (float64, error) {
	var score float64
	err := r.guard.Run(ctx, func(ctx context.Context) error {
		v, err := r.inner.Similarity(ctx, a, b)
		if err != nil {
			return err
		}
		if math.IsNaN(v) {
			return fmt.Errorf("similarity is NaN")
		}
		score = match.Clamp(v)
		return nil
	})
	return score, err
}

func (r *ResilientSimilarity) Name() string {
	return r.inner.Name()
}

// ResilientGeo guards a Geo provider.
type ResilientGeo struct {
	inner Geo
	guard *Guard
}

func NewResilientGeo(inner Geo, cfg GuardConfig, now func() time.Time, log *zap.Logger) *ResilientGeo {
	return &ResilientGeo{
		inner: inner,
		guard: NewGuard(inner.Name(), cfg, now, log),
	}
}

func (r *ResilientGeo) Distance(ctx context.Context, from, to geo.Point, mode profile.TransportMode, departure time.Time) (Route, error) {
	var route Route
	err := r.guard.Run(ctx, func(ctx context.Context) error {
		got, err := r.inner.Distance(ctx, from, to, mode, departure)
		if err != nil {
			return err
		}
		if got.DurationMinutes < 0 || math.IsNaN(got.DurationMinutes) {
			return fmt.Errorf("invalid route duration %v", got.DurationMinutes)
		}
		route = got
		return nil
	})
	return route, err
}

func (r *ResilientGeo) Name() string {
	return r.inner.Name()
}
