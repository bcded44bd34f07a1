package session

import (
	"sync"
	"time"
)

// Store holds exactly one Session per user id. Turns for the same user are
// serialized by a per-session mutex; different users proceed in parallel.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
	newID   func() string
}

type entry struct {
	mu   sync.Mutex
	sess *Session
}

// StoreOpts holds parameters for creating a Store.
type StoreOpts struct {
	Clock func() time.Time // defaults to time.Now
	NewID func() string    // interaction session id generator; defaults to empty ids
}

// NewStore creates an empty Store.
func NewStore(opts StoreOpts) *Store {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return "" }
	}
	return &Store{
		entries: make(map[string]*entry),
		now:     now,
		newID:   newID,
	}
}

// Do runs fn with exclusive access to the user's session, creating the
// session on first contact. displayName is only applied on creation.
func (s *Store) Do(userID, displayName string, fn func(*Session)) {
	e := s.entryFor(userID, displayName)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess.LastActive = s.now()
	fn(e.sess)
}

// Peek returns a copy of the user's session, or false if none exists.
func (s *Store) Peek(userID string) (Session, bool) {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.sess, true
}

// Len returns the number of sessions currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep evicts sessions idle for longer than ttl and returns how many were
// removed. A ttl <= 0 disables eviction.
func (s *Store) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted int
	for userID, e := range s.entries {
		e.mu.Lock()
		idle := e.sess.LastActive.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(s.entries, userID)
			evicted++
		}
	}
	return evicted
}

// entryFor returns the entry for userID, creating the session on first contact.
func (s *Store) entryFor(userID, displayName string) *entry {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[userID]; ok {
		return e
	}
	now := s.now()
	e = &entry{sess: &Session{
		UserID:      userID,
		State:       StateWelcome,
		DisplayName: displayName,
		ID:          s.newID(),
		CreatedAt:   now,
		LastActive:  now,
	}}
	s.entries[userID] = e
	return e
}
