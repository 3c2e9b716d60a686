package store

import (
	"sort"
	"sync"
	"time"

	"github.com/i474232898/openweather-sdk/internal/metrics"
	"github.com/i474232898/openweather-sdk/internal/weather"
)

const (
	// DefaultCapacity is the maximum number of locations kept per client.
	DefaultCapacity = 10
	// DefaultTTL is how long a fetched record stays fresh.
	DefaultTTL = 10 * time.Minute
)

// MemoryStore is a concurrency-safe, bounded cache of weather entries keyed by
// location. When full, inserting a new location evicts the entry with the
// largest age; among equally old entries the lexicographically smallest
// location is evicted.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location as given by the caller (case-sensitive)
	data map[string]weather.Entry

	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// Option customizes a MemoryStore.
type Option func(*MemoryStore)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates a store with the given capacity and TTL.
// Non-positive values fall back to DefaultCapacity and DefaultTTL.
func NewMemoryStore(capacity int, ttl time.Duration, opts ...Option) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		data:     make(map[string]weather.Entry, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Factory returns a weather.StoreFactory producing stores with these settings.
func Factory(capacity int, ttl time.Duration, opts ...Option) weather.StoreFactory {
	return func() weather.Store {
		return NewMemoryStore(capacity, ttl, opts...)
	}
}

// Get returns the entry for location, if present. It never fetches.
func (s *MemoryStore) Get(location string) (weather.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[location]
	return e, ok
}

// Put stores value for location stamped with the current time and returns
// the new entry. Eviction and insertion happen under a single lock.
func (s *MemoryStore) Put(location string, value weather.Record) weather.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if _, exists := s.data[location]; !exists && len(s.data) >= s.capacity {
		s.evictOldestLocked(now)
	}

	e := weather.Entry{Value: value, FetchedAt: now}
	s.data[location] = e
	return e
}

// evictOldestLocked removes argmax(now - FetchedAt). Caller holds s.mu.
func (s *MemoryStore) evictOldestLocked(now time.Time) {
	var (
		victim string
		maxAge time.Duration
		found  bool
	)
	for key, e := range s.data {
		age := e.Age(now)
		if !found || age > maxAge || (age == maxAge && key < victim) {
			victim, maxAge, found = key, age, true
		}
	}
	if found {
		delete(s.data, victim)
		metrics.CacheEvictions.Inc()
	}
}

// Delete removes location. No-op when absent.
func (s *MemoryStore) Delete(location string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, location)
}

// Clear drops every entry.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]weather.Entry, s.capacity)
}

// IsExpired reports whether the entry is older than the TTL.
func (s *MemoryStore) IsExpired(e weather.Entry) bool {
	return e.Age(s.now()) > s.ttl
}

// IsFresh reports whether the entry is younger than the TTL.
func (s *MemoryStore) IsFresh(e weather.Entry) bool {
	return e.Age(s.now()) < s.ttl
}

// Keys returns the cached locations in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of cached locations.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

// Capacity returns the configured maximum size.
func (s *MemoryStore) Capacity() int {
	return s.capacity
}

// TTL returns the configured freshness window.
func (s *MemoryStore) TTL() time.Duration {
	return s.ttl
}
