package core

import (
	"sync"
	"time"
)

// ChatTurn records one call into the orchestrator on behalf of a session:
// the user message, the optional uploaded file that accompanied it and
// the full chain result.
type ChatTurn struct {
	Timestamp time.Time    `json:"timestamp"`
	Message   string       `json:"message"`
	File      string       `json:"file,omitempty"`
	Result    *ChainResult `json:"results"`
}

// Session is the stateful container the orchestrator core stays ignorant
// of: it owns exactly one ChainContext for its lifetime, the ordered
// chat-turn history and the mapping of uploaded filenames to storage
// paths. It is safe for concurrent access.
//
// Contract:
//   - mutations update the Updated timestamp
//   - Turns returns a defensive copy
//   - Clone deep-copies maps and slices for safe divergence in stores
type Session struct {
	ID            string            `json:"id"`
	Created       time.Time         `json:"created_at"`
	Updated       time.Time         `json:"updated_at"`
	Context       ChainContext      `json:"context"`
	History       []ChatTurn        `json:"history"`
	UploadedFiles map[string]string `json:"uploaded_files"`
	mu            sync.RWMutex
}

// NewSession creates an empty session with the given id.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:            id,
		Created:       now,
		Updated:       now,
		Context:       ChainContext{},
		History:       []ChatTurn{},
		UploadedFiles: map[string]string{},
	}
}

// ApplyContext merges a key/value delta into the session context.
func (s *Session) ApplyContext(delta ChainContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range delta {
		s.Context[k] = v
	}
	s.Updated = time.Now().UTC()
}

// ContextSnapshot returns a copy of the session context for handing into
// a chain without exposing the internal map to concurrent mutation.
func (s *Session) ContextSnapshot() ChainContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Context.Clone()
}

// AppendTurn adds a chat turn to the ordered history.
func (s *Session) AppendTurn(turn ChatTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History = append(s.History, turn)
	s.Updated = time.Now().UTC()
}

// Turns returns a defensive copy of the chat-turn history.
func (s *Session) Turns() []ChatTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]ChatTurn, len(s.History))
	copy(turns, s.History)
	return turns
}

// AddFile records an uploaded file under its original filename.
func (s *Session) AddFile(filename, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UploadedFiles[filename] = path
	s.Updated = time.Now().UTC()
}

// Files returns a copy of the filename -> path mapping.
func (s *Session) Files() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := make(map[string]string, len(s.UploadedFiles))
	for k, v := range s.UploadedFiles {
		files[k] = v
	}
	return files
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:            s.ID,
		Created:       s.Created,
		Updated:       s.Updated,
		Context:       make(ChainContext, len(s.Context)),
		History:       make([]ChatTurn, len(s.History)),
		UploadedFiles: make(map[string]string, len(s.UploadedFiles)),
	}
	for k, v := range s.Context {
		clone.Context[k] = v
	}
	copy(clone.History, s.History)
	for k, v := range s.UploadedFiles {
		clone.UploadedFiles[k] = v
	}
	return clone
}

// SessionStore persists sessions between orchestrator calls. The
// orchestrator core never touches a store - it is handed a context in and
// returns results out; the caller (the HTTP layer or the facade) owns
// persistence.
type SessionStore interface {
	// GetOrCreate returns the session with the given id, creating it on
	// first contact.
	GetOrCreate(id string) (*Session, error)
	// Get returns an existing session or an error if absent.
	Get(id string) (*Session, error)
	// Delete removes a session and all its state.
	Delete(id string) error
	// AppendTurn records a chat turn against a session.
	AppendTurn(id string, turn ChatTurn) error
	// ApplyContext merges a context delta into a session.
	ApplyContext(id string, delta ChainContext) error
	// AddFile records an uploaded file against a session.
	AddFile(id, filename, path string) error
	// List returns the ids of all stored sessions.
	List() ([]string, error)
}
