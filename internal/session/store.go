package session

import (
	"sync"
	"time"
)

// Store maps session IDs to live sessions. Implementations must be safe for
// concurrent use; the engine additionally serializes its own read-modify-
// write cycles, so a store only needs per-call safety, not transactions.
type Store interface {
	// Get returns the session with the given ID, or false if absent.
	Get(id string) (*Session, bool)

	// Put inserts or replaces a session.
	Put(s *Session)

	// Delete removes a session, reporting whether it existed.
	Delete(id string) bool

	// SweepExpired removes every session whose StartedAt is older than the
	// timeout, returning how many were removed.
	SweepExpired(now time.Time, timeout time.Duration) int

	// Count returns the number of live sessions.
	Count() int
}

// MemoryStore is the in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *MemoryStore) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *MemoryStore) SweepExpired(now time.Time, timeout time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(now, timeout) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
