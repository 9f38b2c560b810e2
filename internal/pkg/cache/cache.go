// Package cache provides the droppable TTL cache used for pricing lookups.
// Callers depend on Cache so the in-memory store can be replaced by a
// distributed one, or disabled with Noop in tests.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Delete(key string)
	Flush()
}

// Memory is a process-local cache with a fixed TTL per entry.
type Memory[V any] struct {
	store *gocache.Cache
	ttl   time.Duration
}

func NewMemory[V any](ttl time.Duration) *Memory[V] {
	return &Memory[V]{
		store: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (m *Memory[V]) Get(key string) (V, bool) {
	var zero V
	raw, ok := m.store.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

func (m *Memory[V]) Set(key string, value V) { m.store.Set(key, value, m.ttl) }

func (m *Memory[V]) Delete(key string) { m.store.Delete(key) }

func (m *Memory[V]) Flush() { m.store.Flush() }

// Noop never stores anything.
type Noop[V any] struct{}

func (Noop[V]) Get(string) (V, bool) {
	var zero V
	return zero, false
}

func (Noop[V]) Set(string, V) {}

func (Noop[V]) Delete(string) {}

func (Noop[V]) Flush() {}
