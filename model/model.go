package model

import (
	"context"
	"fmt"
	"sync"
)

// Backend is the minimal interface an agent needs to drive generation:
// one prompt in, one completion out. Calls may block on network I/O and
// must respect context cancellation.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// Info returns metadata about the backend implementation.
	Info() Info
}

// Info contains metadata about a backend implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "anthropic", "openai", "ollama", "mock"
}

// MockBackend is a lightweight in-memory Backend useful for tests and
// examples. Register canned completions per prompt; unknown prompts get
// a deterministic echo response. Safe for concurrent use.
type MockBackend struct {
	mu        sync.RWMutex
	info      Info
	responses map[string]string
	err       error
	calls     int
}

// NewMockBackend constructs an empty mock backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		info:      Info{Name: "mock", Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockBackend) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailWith makes every subsequent Generate call return the given error
// wrapped as a BackendError.
func (m *MockBackend) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many times Generate has been invoked.
func (m *MockBackend) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Generate implements Backend.
func (m *MockBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", &BackendError{Provider: "mock", Err: m.err}
	}
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}

// Info implements Backend.
func (m *MockBackend) Info() Info { return m.info }
