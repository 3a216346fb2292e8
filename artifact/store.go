package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/agentchain/core"
)

// Store persists uploaded files per session.
type Store interface {
	// Save stores the bytes under the session and original filename,
	// returning the local path agents will read it from. Re-uploading a
	// filename replaces the earlier content.
	Save(sessionID, filename string, data []byte) (string, error)
	// Paths returns the filename -> path mapping for a session.
	Paths(sessionID string) (map[string]string, error)
	// DeleteSession removes every upload belonging to a session.
	DeleteSession(sessionID string) error
}

// DiskStore writes uploads into a flat directory, prefixing each file
// with a generated id so identically named uploads from different
// sessions never collide.
type DiskStore struct {
	dir string

	mu    sync.RWMutex
	paths map[string]map[string]string // sessionID -> filename -> path
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir, paths: make(map[string]map[string]string)}, nil
}

// Save implements Store.
func (s *DiskStore) Save(sessionID, filename string, data []byte) (string, error) {
	// The stored name uses only the base of the client-supplied
	// filename, keeping uploads inside the configured directory.
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s", core.NewID(), filepath.Base(filename)))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[sessionID]; !ok {
		s.paths[sessionID] = make(map[string]string)
	}
	if old, ok := s.paths[sessionID][filename]; ok {
		os.Remove(old)
	}
	s.paths[sessionID][filename] = path
	return path, nil
}

// Paths implements Store.
func (s *DiskStore) Paths(sessionID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.paths[sessionID]
	if !ok {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

// DeleteSession implements Store. Missing files are ignored; the goal
// is a best-effort cleanup on session deletion.
func (s *DiskStore) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, path := range s.paths[sessionID] {
		os.Remove(path)
	}
	delete(s.paths, sessionID)
	return nil
}

// InMemoryStore keeps upload bytes in process memory and hands out
// pseudo paths. Useful for tests that never read the files back.
type InMemoryStore struct {
	mu      sync.RWMutex
	uploads map[string]map[string][]byte
	paths   map[string]map[string]string
}

// NewInMemoryStore returns an empty in-memory upload store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		uploads: make(map[string]map[string][]byte),
		paths:   make(map[string]map[string]string),
	}
}

// Save implements Store.
func (s *InMemoryStore) Save(sessionID, filename string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.uploads[sessionID]; !ok {
		s.uploads[sessionID] = make(map[string][]byte)
		s.paths[sessionID] = make(map[string]string)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.uploads[sessionID][filename] = cp
	path := fmt.Sprintf("mem://%s/%s", sessionID, filename)
	s.paths[sessionID][filename] = path
	return path, nil
}

// Get returns the stored bytes or ErrNotFound.
func (s *InMemoryStore) Get(sessionID, filename string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.uploads[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := m[filename]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Paths implements Store.
func (s *InMemoryStore) Paths(sessionID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.paths[sessionID]
	if !ok {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

// DeleteSession implements Store.
func (s *InMemoryStore) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uploads, sessionID)
	delete(s.paths, sessionID)
	return nil
}
