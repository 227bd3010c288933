package session

import (
	"sync"

	"github.com/abrezinsky/trackbet/internal/models"
)

// Entry pairs one session with its exclusive critical section. Every
// mutating operation on the session runs under mu; snapshot reads take
// it shared. The lock lives here, not on the model, so persisted state
// never carries synchronization baggage.
type Entry struct {
	mu      sync.RWMutex
	Session *models.Session
}

// Store is the in-memory registry of live sessions plus the reconnect
// token index. The store-level lock only guards the maps; per-session
// state is guarded by each Entry's own lock, so operations on different
// sessions never contend.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	tokens  map[string]string // player token -> session id
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*Entry),
		tokens:  make(map[string]string),
	}
}

// Put registers a session and returns its entry
func (s *Store) Put(session *models.Session) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := &Entry{Session: session}
	s.entries[session.ID] = entry
	return entry
}

// GetOrPut returns the registered entry for the session's id, or
// registers the given session when the id is still unknown. Two
// loaders racing to rehydrate the same session converge on one entry
// and one lock; the loser's copy is discarded.
func (s *Store) GetOrPut(session *models.Session) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[session.ID]; ok {
		return entry
	}
	entry := &Entry{Session: session}
	s.entries[session.ID] = entry
	return entry
}

// Get returns the entry for a session id
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	return entry, ok
}

// Has reports whether a session id is registered
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[id]
	return ok
}

// Delete removes a session and any tokens pointing at it
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	for token, sessionID := range s.tokens {
		if sessionID == id {
			delete(s.tokens, token)
		}
	}
}

// IndexToken records which session a reconnect token belongs to
func (s *Store) IndexToken(token, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = sessionID
}

// SessionForToken resolves a reconnect token to its session id
func (s *Store) SessionForToken(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[token]
	return id, ok
}
