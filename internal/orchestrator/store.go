package orchestrator

import (
	"sync"

	"github.com/michael/vc-council/internal/types"
)

// SessionStore holds sessions for their in-memory lifetime. Reads may
// happen concurrently from status pollers while the owning background
// goroutine mutates through Update.
type SessionStore interface {
	Put(session *types.Session)
	// Get returns a snapshot copy; callers never see concurrent mutation.
	Get(id string) (types.Session, bool)
	// Update applies fn to the stored session under the store lock.
	Update(id string, fn func(*types.Session)) bool
	Delete(id string)
	Count() int
}

// memoryStore is the default process-memory store.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() SessionStore {
	return &memoryStore{sessions: make(map[string]*types.Session)}
}

func (s *memoryStore) Put(session *types.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

func (s *memoryStore) Get(id string) (types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return types.Session{}, false
	}
	return session.Snapshot(), true
}

func (s *memoryStore) Update(id string, fn func(*types.Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return false
	}
	fn(session)
	return true
}

func (s *memoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *memoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
