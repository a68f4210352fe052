package cache

import (
	"math"
	"path"
	"sort"
	"sync"

	"github.com/spigell/hh-matcher/internal/geo"
)

type spatialEntry struct {
	from, to geo.Point
	key      string
}

// spatialIndex remembers tier-3 endpoints per scope. It is bounded per scope;
// the oldest entries are dropped first.
type spatialIndex struct {
	limit int

	mu      sync.RWMutex
	entries map[string][]spatialEntry
	warm    map[string]bool
}

func newSpatialIndex(limit int) *spatialIndex {
	return &spatialIndex{
		limit:   limit,
		entries: make(map[string][]spatialEntry),
		warm:    make(map[string]bool),
	}
}

func (s *spatialIndex) add(scope string, from, to geo.Point, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.entries[scope]
	for _, e := range list {
		if e.key == key {
			return
		}
	}
	list = append(list, spatialEntry{from: from, to: to, key: key})
	if len(list) > s.limit {
		list = list[len(list)-s.limit:]
	}
	s.entries[scope] = list
}

// nearest returns keys whose endpoints are both within radiusKm, closest first.
func (s *spatialIndex) nearest(scope string, from, to geo.Point, radiusKm float64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type candidate struct {
		key  string
		dist float64
	}

	var found []candidate
	for _, e := range s.entries[scope] {
		d := math.Max(geo.Haversine(from, e.from), geo.Haversine(to, e.to))
		if d <= radiusKm {
			found = append(found, candidate{key: e.key, dist: d})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].key < found[j].key
	})

	keys := make([]string, 0, len(found))
	for _, c := range found {
		keys = append(keys, c.key)
	}
	return keys
}

func (s *spatialIndex) remove(pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for scope, list := range s.entries {
		kept := list[:0]
		for _, e := range list {
			if ok, _ := path.Match(pattern, e.key); !ok {
				kept = append(kept, e)
			}
		}
		s.entries[scope] = kept
	}
}

func (s *spatialIndex) warmed(scope string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.warm[scope]
}

func (s *spatialIndex) markWarm(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warm[scope] = true
}
