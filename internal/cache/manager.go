package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/hh-matcher/internal/geo"
	"github.com/spigell/hh-matcher/internal/match"
)

// envelope wraps stored values so that TTL can be checked against the
// manager's clock regardless of the backend.
type envelope struct {
	Tier    Tier            `json:"tier"`
	Created time.Time       `json:"created"`
	Expires time.Time       `json:"expires"`
	Value   json.RawMessage `json:"value"`
}

// Stats counts lookups per tier.
type Stats struct {
	Hits     map[Tier]int64 `json:"hits"`
	Misses   map[Tier]int64 `json:"misses"`
	Writes   int64          `json:"writes"`
	Errors   int64          `json:"errors"`
	Bypassed int64          `json:"bypassed"`
}

type counters struct {
	hits, misses [4]atomic.Int64
	writes       atomic.Int64
	errors       atomic.Int64
	bypassed     atomic.Int64
}

// Manager fronts a Backend with tiered TTLs, fire-and-forget writes, a
// spatial index for tier 3 and a bypass window after backend failures.
// A nil *Manager is a valid, always-missing cache.
type Manager struct {
	backend Backend
	cfg     Config
	now     func() time.Time
	log     *zap.Logger

	wg       sync.WaitGroup
	group    singleflight.Group
	spatial  *spatialIndex
	stats    counters
	bypassMu sync.Mutex
	bypass   time.Time
}

func NewManager(backend Backend, cfg Config, now func() time.Time, log *zap.Logger) *Manager {
	if backend == nil {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	return &Manager{
		backend: backend,
		cfg:     cfg,
		now:     now,
		log:     log.Named("cache"),
		spatial: newSpatialIndex(cfg.MaxEntries),
	}
}

// Get decodes the entry stored under key into out. Expired, undecodable and
// unreachable entries are misses.
func (m *Manager) Get(ctx context.Context, tier Tier, key string, out any) bool {
	if m == nil {
		return false
	}

	raw, ok := m.lookup(ctx, key)
	if !ok {
		m.stats.misses[tier].Add(1)
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || !m.now().Before(env.Expires) {
		m.stats.misses[tier].Add(1)
		return false
	}
	if err := json.Unmarshal(env.Value, out); err != nil {
		m.log.Debug("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		m.stats.misses[tier].Add(1)
		return false
	}

	m.stats.hits[tier].Add(1)
	return true
}

// Set stores value asynchronously. Failures are logged and never reach the caller.
func (m *Manager) Set(tier Tier, key string, value any) {
	if m == nil {
		return
	}

	raw, err := m.encode(tier, value)
	if err != nil {
		m.log.Warn("failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	m.write(key, raw, m.cfg.ttl(tier))
}

// GetOrCompute returns the cached value for key or computes, stores and
// returns it. Concurrent callers for the same key share one computation.
func (m *Manager) GetOrCompute(ctx context.Context, tier Tier, key string, out any, compute func(ctx context.Context) (any, error)) (bool, error) {
	if m == nil {
		v, err := compute(ctx)
		if err != nil {
			return false, err
		}
		return false, assign(v, out)
	}

	if m.Get(ctx, tier, key, out) {
		return true, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		m.Set(tier, key, json.RawMessage(raw))
		return raw, nil
	})
	if err != nil {
		return false, err
	}

	return false, json.Unmarshal(v.([]byte), out)
}

// SetNear stores a tier-3 route result for the (from, to) pair under scope.
func (m *Manager) SetNear(scope string, from, to geo.Point, value any) {
	if m == nil {
		return
	}

	key := approxKey(scope, from, to)
	raw, err := m.encode(TierApprox, value)
	if err != nil {
		m.log.Warn("failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	m.spatial.add(scope, from, to, key)
	m.write(key, raw, m.cfg.ApproxTTL)
}

// Nearest looks for a tier-3 entry under scope whose endpoints both lie
// within the proximity radius of from and to, preferring the closest.
func (m *Manager) Nearest(ctx context.Context, scope string, from, to geo.Point, out any) bool {
	if m == nil {
		return false
	}

	m.warmSpatial(ctx, scope)

	radiusKm := m.cfg.ProximityMeters / 1000
	for _, key := range m.spatial.nearest(scope, from, to, radiusKm) {
		raw, ok := m.lookup(ctx, key)
		if !ok {
			continue
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil || !m.now().Before(env.Expires) {
			continue
		}
		if err := json.Unmarshal(env.Value, out); err != nil {
			continue
		}
		m.stats.hits[TierApprox].Add(1)
		return true
	}

	m.stats.misses[TierApprox].Add(1)
	return false
}

// Invalidate deletes every entry whose key matches the glob pattern.
func (m *Manager) Invalidate(ctx context.Context, pattern string) (int, error) {
	if m == nil {
		return 0, nil
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	m.Wait()

	n, err := m.backend.Delete(ctx, pattern)
	if err != nil {
		m.fail("invalidate", err)
		return n, fmt.Errorf("%w: %v", match.ErrCacheUnavailable, err)
	}
	m.spatial.remove(pattern)

	m.log.Info("invalidated cache entries", zap.String("pattern", pattern), zap.Int("count", n))
	return n, nil
}

// Wait blocks until pending writes have finished.
func (m *Manager) Wait() {
	if m == nil {
		return
	}
	m.wg.Wait()
}

// Close waits for pending writes and closes the backend.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.Wait()
	return m.backend.Close()
}

func (m *Manager) Stats() Stats {
	s := Stats{
		Hits:   make(map[Tier]int64),
		Misses: make(map[Tier]int64),
	}
	if m == nil {
		return s
	}
	for _, t := range []Tier{TierExact, TierPattern, TierApprox} {
		s.Hits[t] = m.stats.hits[t].Load()
		s.Misses[t] = m.stats.misses[t].Load()
	}
	s.Writes = m.stats.writes.Load()
	s.Errors = m.stats.errors.Load()
	s.Bypassed = m.stats.bypassed.Load()
	return s
}

// Available reports whether the manager is outside a bypass window.
func (m *Manager) Available() bool {
	if m == nil {
		return false
	}
	m.bypassMu.Lock()
	defer m.bypassMu.Unlock()
	return !m.now().Before(m.bypass)
}

func (m *Manager) lookup(ctx context.Context, key string) ([]byte, bool) {
	if !m.Available() {
		m.stats.bypassed.Add(1)
		return nil, false
	}

	raw, ok, err := m.backend.Get(ctx, key)
	if err != nil {
		m.fail("get", err)
		return nil, false
	}
	return raw, ok
}

func (m *Manager) write(key string, raw []byte, ttl time.Duration) {
	if !m.Available() {
		m.stats.bypassed.Add(1)
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.WriteTimeout)
		defer cancel()

		if err := m.backend.Set(ctx, key, raw, ttl); err != nil {
			m.fail("set", err)
			return
		}
		m.stats.writes.Add(1)
	}()
}

func (m *Manager) encode(tier Tier, value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	now := m.now()
	return json.Marshal(envelope{
		Tier:    tier,
		Created: now,
		Expires: now.Add(m.cfg.ttl(tier)),
		Value:   raw,
	})
}

// fail opens the bypass window after a backend error.
func (m *Manager) fail(op string, err error) {
	m.stats.errors.Add(1)

	m.bypassMu.Lock()
	m.bypass = m.now().Add(m.cfg.BypassCooldown)
	m.bypassMu.Unlock()

	m.log.Warn("cache backend failed, bypassing",
		zap.String("op", op),
		zap.Duration("cooldown", m.cfg.BypassCooldown),
		zap.Error(fmt.Errorf("%w: %v", match.ErrCacheUnavailable, err)),
	)
}

func (m *Manager) warmSpatial(ctx context.Context, scope string) {
	if m.spatial.warmed(scope) || !m.Available() {
		return
	}

	keys, err := m.backend.Keys(ctx, approxPrefix(scope)+"*")
	if err != nil {
		m.fail("keys", err)
		return
	}
	for _, key := range keys {
		if from, to, ok := parseApproxKey(scope, key); ok {
			m.spatial.add(scope, from, to, key)
		}
	}
	m.spatial.markWarm(scope)
}

func assign(v any, out any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
