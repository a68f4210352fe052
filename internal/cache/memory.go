package cache

import (
	"context"
	"path"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is an in-process LRU backend. Per-entry TTLs are checked against the
// injected clock on access; the LRU also sweeps entries older than maxTTL.
type Memory struct {
	now func() time.Time
	lru *expirable.LRU[string, memoryEntry]
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// NewMemory bounds the backend to maxEntries. maxTTL should be the longest
// tier TTL; zero means the default approximate tier TTL.
func NewMemory(maxEntries int, maxTTL time.Duration, now func() time.Time) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultConfig().MaxEntries
	}
	if maxTTL <= 0 {
		maxTTL = DefaultConfig().ApproxTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{
		now: now,
		lru: expirable.NewLRU[string, memoryEntry](maxEntries, nil, maxTTL),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if entry.expired(m.now()) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}
	m.lru.Add(key, entry)
	return nil
}

func (m *Memory) Delete(ctx context.Context, pattern string) (int, error) {
	keys, err := m.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, key := range keys {
		if m.lru.Remove(key) {
			deleted++
		}
	}
	return deleted, nil
}

// Keys lists matching keys from the most to the least recently used.
func (m *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, err
	}

	all := m.lru.Keys()
	var keys []string
	for i := len(all) - 1; i >= 0; i-- {
		if ok, _ := path.Match(pattern, all[i]); ok {
			keys = append(keys, all[i])
		}
	}
	return keys, nil
}

func (m *Memory) Len() int {
	return m.lru.Len()
}

func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
