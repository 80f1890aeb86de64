package cache

import (
	"sync"
	"time"
)

type tableEntry[T any] struct {
	value   T
	expires time.Time
}

// Table is a keyed cache with a fixed per-entry TTL and no size bound.
type Table[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]tableEntry[T]
	now     func() time.Time
}

// NewTable creates an empty table whose entries live for ttl after each Set.
func NewTable[T any](ttl time.Duration) *Table[T] {
	return &Table[T]{
		ttl:     ttl,
		entries: make(map[string]tableEntry[T]),
		now:     time.Now,
	}
}

// Get returns the value for key while it is fresh. An expired entry is
// dropped on the way out.
func (t *Table[T]) Get(key string) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if !t.now().Before(e.expires) {
		delete(t.entries, key)
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores v under key and restarts its TTL.
func (t *Table[T]) Set(key string, v T) {
	t.mu.Lock()
	t.entries[key] = tableEntry[T]{value: v, expires: t.now().Add(t.ttl)}
	t.mu.Unlock()
}

// Delete removes one key.
func (t *Table[T]) Delete(key string) {
	t.mu.Lock()
	delete(t.entries, key)
	t.mu.Unlock()
}

// Clear removes every entry.
func (t *Table[T]) Clear() {
	t.mu.Lock()
	t.entries = make(map[string]tableEntry[T])
	t.mu.Unlock()
}
