package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is the in-process cache backend. All mutations of the entry map and
// the hit/miss counters happen under a single mutex; expired entries are
// evicted lazily on the next read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*Entry
	hits    uint64
	misses  uint64

	// now is the clock source, overridable in tests.
	now func() time.Time
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Get retrieves a value by key. Expired entries are deleted and counted as
// misses. Memory never returns an error.
func (m *Memory) Get(_ context.Context, key string) (any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[key]; ok {
		if !entry.IsExpired(m.now()) {
			m.hits++
			cacheHits.WithLabelValues("memory").Inc()
			return entry.Value, true, nil
		}
		delete(m.entries, key)
	}

	m.misses++
	cacheMisses.WithLabelValues("memory").Inc()
	return nil, false, nil
}

// Set stores a value with a fresh creation stamp, overwriting any existing
// entry under the same key.
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = NewEntry(value, ttl, m.now())
	cacheEntries.WithLabelValues("memory").Set(float64(len(m.entries)))
	return nil
}

// Delete removes a key if present.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	cacheEntries.WithLabelValues("memory").Set(float64(len(m.entries)))
	return nil
}

// Clear removes all entries. Counters are kept so hit-rate history survives
// an operator flush.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*Entry)
	cacheEntries.WithLabelValues("memory").Set(0)
	return nil
}

// GetStats returns the current counter snapshot.
func (m *Memory) GetStats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.hits + m.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(m.hits) / float64(total) * 100
	}

	return Stats{
		Backend:       "memory",
		Size:          len(m.entries),
		Hits:          m.hits,
		Misses:        m.misses,
		HitRate:       hitRate,
		TotalRequests: total,
	}, nil
}
