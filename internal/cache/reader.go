package cache

import (
	"context"

	"github.com/google/uuid"

	"github.com/rmoralesc/movilpos-backend/pkg/enums"
)

// Reader is a typed cache-first view over one entity's collection. A stale
// or missing bucket triggers the origin fetch and repopulates the store.
type Reader[T any] struct {
	store  *Store
	entity enums.CacheEntity
	id     func(T) uuid.UUID
	fetch  func(ctx context.Context) ([]T, error)
}

// NewReader wires a typed reader over the shared store.
func NewReader[T any](store *Store, entity enums.CacheEntity, id func(T) uuid.UUID, fetch func(ctx context.Context) ([]T, error)) *Reader[T] {
	return &Reader[T]{store: store, entity: entity, id: id, fetch: fetch}
}

// All returns the collection, from cache when fresh.
func (r *Reader[T]) All(ctx context.Context) ([]T, error) {
	if cached, ok := r.store.Get(r.entity); ok {
		out := make([]T, 0, len(cached))
		for _, v := range cached {
			if typed, ok := v.(T); ok {
				out = append(out, typed)
			}
		}
		return out, nil
	}
	return r.Refresh(ctx)
}

// Refresh bypasses the cache, fetches from origin, and repopulates.
func (r *Reader[T]) Refresh(ctx context.Context) ([]T, error) {
	items, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(items))
	values := make([]any, len(items))
	for i, item := range items {
		ids[i] = r.id(item)
		values[i] = item
	}
	r.store.Put(r.entity, ids, values)
	return items, nil
}

// PatchOne write-throughs a single record after a commit.
func (r *Reader[T]) PatchOne(item T) {
	r.store.PatchOne(r.entity, r.id(item), item)
}

// RemoveOne drops a single record after a delete or deactivate.
func (r *Reader[T]) RemoveOne(id uuid.UUID) {
	r.store.RemoveOne(r.entity, id)
}

// Invalidate forgets the whole collection.
func (r *Reader[T]) Invalidate() {
	r.store.Invalidate(r.entity)
}
