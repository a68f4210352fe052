package engine

import (
	"fmt"
	"time"

	"github.com/spigell/hh-matcher/internal/match"
)

type Config struct {
	// Timeout bounds a whole ComputeMatch call.
	Timeout time.Duration `mapstructure:"timeout"`
	// CriterionTimeout is used for criteria without an entry in CriteriaTimeouts.
	CriterionTimeout time.Duration            `mapstructure:"criterion_timeout"`
	CriteriaTimeouts map[string]time.Duration `mapstructure:"criteria_timeouts"`
	MinCompleteness  float64                  `mapstructure:"min_completeness"`
	// Departure is the default commute departure as HH:MM on the request date.
	Departure       string `mapstructure:"departure"`
	RankConcurrency int    `mapstructure:"rank_concurrency"`
}

func DefaultConfig() Config {
	return Config{
		Timeout:          3 * time.Second,
		CriterionTimeout: 200 * time.Millisecond,
		CriteriaTimeouts: map[string]time.Duration{
			string(match.Semantic): 2 * time.Second,
			string(match.Commute):  2 * time.Second,
		},
		MinCompleteness: 0.30,
		Departure:       "08:30",
		RankConcurrency: 4,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.CriterionTimeout <= 0 {
		c.CriterionTimeout = def.CriterionTimeout
	}
	if c.CriteriaTimeouts == nil {
		c.CriteriaTimeouts = def.CriteriaTimeouts
	}
	if c.MinCompleteness <= 0 {
		c.MinCompleteness = def.MinCompleteness
	}
	if c.Departure == "" {
		c.Departure = def.Departure
	}
	if c.RankConcurrency <= 0 {
		c.RankConcurrency = def.RankConcurrency
	}
	return c
}

// Validate rejects unusable values. Zero values are replaced by defaults.
func (c Config) Validate() error {
	if _, err := time.Parse("15:04", c.withDefaults().Departure); err != nil {
		return fmt.Errorf("engine.departure must be HH:MM: %w", err)
	}
	for name, d := range c.CriteriaTimeouts {
		if !match.Criterion(name).Valid() {
			return fmt.Errorf("engine.criteria_timeouts: unknown criterion %q", name)
		}
		if d <= 0 {
			return fmt.Errorf("engine.criteria_timeouts.%s must be positive", name)
		}
	}
	if c.MinCompleteness > 1 {
		return fmt.Errorf("engine.min_completeness must be within [0,1], got %v", c.MinCompleteness)
	}
	return nil
}

func (c Config) timeoutFor(criterion match.Criterion) time.Duration {
	if d, ok := c.CriteriaTimeouts[string(criterion)]; ok && d > 0 {
		return d
	}
	return c.CriterionTimeout
}

// departureOn returns the configured departure time on the date of now.
func (c Config) departureOn(now time.Time) time.Time {
	clock, err := time.Parse("15:04", c.Departure)
	if err != nil {
		clock, _ = time.Parse("15:04", DefaultConfig().Departure)
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, now.Location())
}
