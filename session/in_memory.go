package session

import (
	"fmt"
	"sync"

	"github.com/hupe1980/agentchain/core"
)

// ErrSessionNotFound is returned when a session id does not exist.
var ErrSessionNotFound = fmt.Errorf("session not found")

// InMemoryStore is a volatile SessionStore keeping sessions in a process
// local map. Safe for concurrent access; sessions are cloned on read so
// callers cannot mutate internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// GetOrCreate implements core.SessionStore.
func (s *InMemoryStore) GetOrCreate(id string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(id).Clone(), nil
}

// Get implements core.SessionStore.
func (s *InMemoryStore) Get(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess.Clone(), nil
}

// Delete implements core.SessionStore.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// AppendTurn implements core.SessionStore.
func (s *InMemoryStore) AppendTurn(id string, turn core.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(id).AppendTurn(turn)
	return nil
}

// ApplyContext implements core.SessionStore.
func (s *InMemoryStore) ApplyContext(id string, delta core.ChainContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(id).ApplyContext(delta)
	return nil
}

// AddFile implements core.SessionStore.
func (s *InMemoryStore) AddFile(id, filename, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(id).AddFile(filename, path)
	return nil
}

// List implements core.SessionStore.
func (s *InMemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

// getOrCreateLocked allocates and stores a session on first contact;
// caller must hold the write lock.
func (s *InMemoryStore) getOrCreateLocked(id string) *core.Session {
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := core.NewSession(id)
	s.sessions[id] = sess
	return sess
}
