package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesc/movilpos-backend/pkg/enums"
	"github.com/rmoralesc/movilpos-backend/pkg/metrics"
)

// DefaultTTL bounds how long a cached collection serves reads before the
// next access goes back to the database.
const DefaultTTL = 24 * time.Hour

type entry struct {
	id    uuid.UUID
	value any
}

type bucket struct {
	entries  []entry
	storedAt time.Time
}

// Store is the process-local read cache, one bucket per entity. Writers keep
// buckets current with PatchOne/RemoveOne rather than reloading whole
// collections after every sale.
type Store struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.POSMetrics
	buckets map[enums.CacheEntity]*bucket
}

// Option tweaks store construction.
type Option func(*Store)

// WithClock injects the time source, for TTL tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMetrics attaches hit/miss counters.
func WithMetrics(m *metrics.POSMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore builds an empty cache. A non-positive ttl falls back to DefaultTTL.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:     ttl,
		now:     time.Now,
		buckets: make(map[enums.CacheEntity]*bucket),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached collection when it is still fresh.
func (s *Store) Get(entity enums.CacheEntity) ([]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[entity]
	if !ok || s.now().Sub(b.storedAt) >= s.ttl {
		s.metrics.IncCacheMiss(entity.String())
		return nil, false
	}
	s.metrics.IncCacheHit(entity.String())
	out := make([]any, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e.value)
	}
	return out, true
}

// Put replaces the entity's collection and restamps its TTL window.
func (s *Store) Put(entity enums.CacheEntity, ids []uuid.UUID, values []any) {
	if len(ids) != len(values) {
		return
	}
	entries := make([]entry, len(ids))
	for i := range ids {
		entries[i] = entry{id: ids[i], value: values[i]}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[entity] = &bucket{entries: entries, storedAt: s.now()}
}

// PatchOne upserts a single record in place without touching the bucket's
// timestamp: a write-through after a sale must not extend the collection's
// freshness window. Patching an absent bucket is a no-op; the next read
// fetches from origin anyway.
func (s *Store) PatchOne(entity enums.CacheEntity, id uuid.UUID, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[entity]
	if !ok {
		return
	}
	for i := range b.entries {
		if b.entries[i].id == id {
			b.entries[i].value = value
			return
		}
	}
	b.entries = append(b.entries, entry{id: id, value: value})
}

// RemoveOne drops a single record from the entity's bucket.
func (s *Store) RemoveOne(entity enums.CacheEntity, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[entity]
	if !ok {
		return
	}
	for i := range b.entries {
		if b.entries[i].id == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}

// Invalidate forgets the entity's collection entirely.
func (s *Store) Invalidate(entity enums.CacheEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, entity)
}
