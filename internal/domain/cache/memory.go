package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// MemoryCache is a count-bounded, least-recently-used cache with lazy expiry.
type MemoryCache struct {
	mu      sync.Mutex
	entries *lru.Cache
	now     Clock

	hits      uint64
	misses    uint64
	evictions uint64
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
}

// Option configures a MemoryCache.
type Option func(*MemoryCache)

// WithClock overrides time.Now.
func WithClock(c Clock) Option {
	return func(m *MemoryCache) { m.now = c }
}

// NewMemoryCache returns a cache holding at most maxEntries live entries.
func NewMemoryCache(maxEntries int, opts ...Option) (*MemoryCache, error) {
	if maxEntries <= 0 {
		return nil, ErrInvalidSize
	}

	m := &MemoryCache{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}

	entries, err := lru.New(maxEntries)
	if err != nil {
		return nil, err
	}
	m.entries = entries
	return m, nil
}

// Get returns the live value for key and marks it most recently used.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.entries.Get(key)
	if !ok {
		m.misses++
		return nil, false
	}
	e := raw.(entry)
	if !m.now().Before(e.expiresAt) {
		m.entries.Remove(key)
		m.misses++
		return nil, false
	}
	m.hits++
	return e.value, true
}

// Set stores value until now+ttl, evicting the least recently used entry
// when the bound is exceeded.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if evicted := m.entries.Add(key, entry{value: value, expiresAt: m.now().Add(ttl)}); evicted {
		m.evictions++
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries.Remove(key)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// observed by Get.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.Len()
}

// Stats returns the current counters.
func (m *MemoryCache) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Hits:      m.hits,
		Misses:    m.misses,
		Evictions: m.evictions,
		Entries:   m.entries.Len(),
	}
}

var _ Cache = (*MemoryCache)(nil)
