package cache

import (
	"sync"
	"time"
)

// Slot is a single-value cache with a fixed TTL. The zero value is not
// usable; construct with NewSlot.
type Slot[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	value   T
	expires time.Time
	now     func() time.Time
}

// NewSlot creates an empty slot whose values live for ttl after each Set.
func NewSlot[T any](ttl time.Duration) *Slot[T] {
	return &Slot[T]{ttl: ttl, now: time.Now}
}

// Get returns the cached value while it is fresh.
func (s *Slot[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.now().Before(s.expires) {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Set stores v and restarts the TTL.
func (s *Slot[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.expires = s.now().Add(s.ttl)
	s.mu.Unlock()
}

// Clear empties the slot immediately.
func (s *Slot[T]) Clear() {
	s.mu.Lock()
	var zero T
	s.value = zero
	s.expires = time.Time{}
	s.mu.Unlock()
}
