// Package session issues and validates opaque, time-limited auth tokens.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// TTL is how long a freshly issued session stays valid.
const TTL = 30 * 24 * time.Hour

// Store holds active sessions in memory. Expired sessions are purged lazily
// on the next Verify for their token; there is no background sweep.
type Store struct {
	mu       sync.Mutex
	sessions map[string]time.Time // token -> expiry
	now      func() time.Time
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Create issues a new random token valid for TTL.
func (s *Store) Create() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	s.sessions[token] = s.now().Add(TTL)
	s.mu.Unlock()
	return token, nil
}

// Verify reports whether token identifies a live session. An expired entry is
// removed on the way out; a valid one is left untouched (no sliding expiry).
func (s *Store) Verify(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.sessions[token]
	if !ok {
		return false
	}
	if !s.now().Before(expiry) {
		delete(s.sessions, token)
		return false
	}
	return true
}

// Len returns the number of stored sessions, including any not yet lazily
// purged. Used by tests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
