// Package cache implements the three-tier result cache shared by the criteria.
//
// Tier 1 holds exact results keyed by input fingerprints. Tier 2 holds
// sub-results keyed by coarse patterns (title categories, route zones).
// Tier 3 holds route results reachable by spatial proximity.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/hh-matcher/internal/geo"
	"github.com/spigell/hh-matcher/internal/profile"
)

type Tier int

const (
	TierExact Tier = iota + 1
	TierPattern
	TierApprox
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierPattern:
		return "pattern"
	case TierApprox:
		return "approximate"
	default:
		return "unknown"
	}
}

// Backend is a key/value store with TTL support. Patterns use glob syntax
// (*, ? and [...]).
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, pattern string) (int, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

type Config struct {
	Enabled bool `mapstructure:"enabled"`
	// Backend is one of memory, redis, sqlite or none.
	Backend         string        `mapstructure:"backend"`
	MaxEntries      int           `mapstructure:"max_entries"`
	ExactTTL        time.Duration `mapstructure:"exact_ttl"`
	PatternTTL      time.Duration `mapstructure:"pattern_ttl"`
	ApproxTTL       time.Duration `mapstructure:"approx_ttl"`
	ProximityMeters float64       `mapstructure:"proximity_meters"`
	BypassCooldown  time.Duration `mapstructure:"bypass_cooldown"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	Redis           RedisConfig   `mapstructure:"redis"`
	SQLite          SQLiteConfig  `mapstructure:"sqlite"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		Backend:         "memory",
		MaxEntries:      10000,
		ExactTTL:        24 * time.Hour,
		PatternTTL:      7 * 24 * time.Hour,
		ApproxTTL:       30 * 24 * time.Hour,
		ProximityMeters: 500,
		BypassCooldown:  30 * time.Second,
		WriteTimeout:    2 * time.Second,
		Redis:           RedisConfig{Prefix: "hh-matcher:"},
		SQLite:          SQLiteConfig{Path: "hh-matcher-cache.db"},
	}
}

func (c Config) longestTTL() time.Duration {
	return max(c.ExactTTL, c.PatternTTL, c.ApproxTTL)
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxEntries <= 0 {
		c.MaxEntries = def.MaxEntries
	}
	if c.ExactTTL <= 0 {
		c.ExactTTL = def.ExactTTL
	}
	if c.PatternTTL <= 0 {
		c.PatternTTL = def.PatternTTL
	}
	if c.ApproxTTL <= 0 {
		c.ApproxTTL = def.ApproxTTL
	}
	if c.ProximityMeters <= 0 {
		c.ProximityMeters = def.ProximityMeters
	}
	if c.BypassCooldown <= 0 {
		c.BypassCooldown = def.BypassCooldown
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	return c
}

func (c Config) ttl(t Tier) time.Duration {
	switch t {
	case TierPattern:
		return c.PatternTTL
	case TierApprox:
		return c.ApproxTTL
	default:
		return c.ExactTTL
	}
}

// Open builds the backend named in cfg. A "none" backend or a disabled
// config yields a nil Backend.
func Open(ctx context.Context, cfg Config, now func() time.Time) (Backend, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	cfg = cfg.withDefaults()

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return NewMemory(cfg.MaxEntries, cfg.longestTTL(), now), nil
	case "redis":
		r, err := NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "sqlite":
		s, err := NewSQLite(ctx, cfg.SQLite, now)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q: must be memory, redis, sqlite or none", cfg.Backend)
	}
}

// ExactKey builds a tier-1 key from the fingerprints of every input the
// criterion reads.
func ExactKey(criterion string, parts ...string) string {
	return "t1:" + criterion + ":" + profile.Hash(parts...)
}

// PatternKey builds a tier-2 key. pattern must not be empty.
func PatternKey(criterion string, pattern ...string) string {
	return "t2:" + criterion + ":" + strings.Join(pattern, ":")
}

func approxPrefix(scope string) string {
	return "t3:" + scope + ":"
}

func approxKey(scope string, from, to geo.Point) string {
	return approxPrefix(scope) + from.String() + ";" + to.String()
}

// parseApproxKey recovers the endpoints stored in a tier-3 key.
func parseApproxKey(scope, key string) (geo.Point, geo.Point, bool) {
	rest, ok := strings.CutPrefix(key, approxPrefix(scope))
	if !ok {
		return geo.Point{}, geo.Point{}, false
	}
	a, b, ok := strings.Cut(rest, ";")
	if !ok {
		return geo.Point{}, geo.Point{}, false
	}
	from, okA := parsePoint(a)
	to, okB := parsePoint(b)
	return from, to, okA && okB
}

func parsePoint(s string) (geo.Point, bool) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Point{}, false
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return geo.Point{}, false
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: la, Lon: lo}, true
}
