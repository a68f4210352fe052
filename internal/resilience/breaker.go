// Package resilience guards external provider calls with a failure-rate
// circuit breaker and exponential-backoff retries.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type BreakerConfig struct {
	// WindowSize is the number of most recent outcomes considered.
	WindowSize int `mapstructure:"window_size"`
	// MinRequests is the number of outcomes required before the breaker may trip.
	MinRequests int `mapstructure:"min_requests"`
	// FailureRate in (0,1] trips the breaker when reached.
	FailureRate float64       `mapstructure:"failure_rate"`
	Cooldown    time.Duration `mapstructure:"cooldown"`
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		WindowSize:  10,
		MinRequests: 5,
		FailureRate: 0.5,
		Cooldown:    30 * time.Second,
	}
}

// Breaker opens when the failure rate over the last WindowSize calls reaches
// FailureRate. After Cooldown a single probe is let through; its outcome closes
// or reopens the breaker.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    State
	outcomes []bool
	next     int
	openedAt time.Time
	probing  bool
}

func NewBreaker(cfg BreakerConfig, now func() time.Time) *Breaker {
	def := DefaultBreakerConfig()
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.MinRequests <= 0 || cfg.MinRequests > cfg.WindowSize {
		cfg.MinRequests = min(def.MinRequests, cfg.WindowSize)
	}
	if cfg.FailureRate <= 0 || cfg.FailureRate > 1 {
		cfg.FailureRate = def.FailureRate
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if now == nil {
		now = time.Now
	}

	return &Breaker{cfg: cfg, now: now}
}

// Allow reports whether a call may proceed. Every allowed call must be
// followed by exactly one Record.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return ErrOpen
		}
		b.state = StateHalfOpen
		b.probing = true
		return nil
	case StateHalfOpen:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

// Record stores the outcome of an allowed call.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.probing = false
		if success {
			b.reset()
		} else {
			b.trip()
		}
		return
	}

	if len(b.outcomes) < b.cfg.WindowSize {
		b.outcomes = append(b.outcomes, success)
	} else {
		b.outcomes[b.next] = success
		b.next = (b.next + 1) % b.cfg.WindowSize
	}

	if len(b.outcomes) < b.cfg.MinRequests {
		return
	}

	failures := 0
	for _, ok := range b.outcomes {
		if !ok {
			failures++
		}
	}
	if float64(failures)/float64(len(b.outcomes)) >= b.cfg.FailureRate {
		b.trip()
	}
}

// Do runs fn under the breaker. Context cancellation by the caller is not
// counted as a provider failure.
func (b *Breaker) Do(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	b.Record(err == nil || errors.Is(err, context.Canceled))
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.outcomes = b.outcomes[:0]
	b.next = 0
}

func (b *Breaker) reset() {
	b.state = StateClosed
	b.outcomes = b.outcomes[:0]
	b.next = 0
}
