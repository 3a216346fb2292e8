package orchestrator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/agentchain/core"
)

// Registry is the named collection of available agents. Registration is
// expected to finish during startup; afterwards the registry is
// effectively read-only and safe to share across concurrent chains.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]core.Agent
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]core.Agent)}
}

// Register adds an agent under its own name. Registering a name twice
// replaces the earlier agent without warning - last registration wins.
func (r *Registry) Register(a core.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.Name()] = a
}

// Get returns the agent registered under name, or an error wrapping
// ErrAgentNotFound.
func (r *Registry) Get(name string) (core.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	return a, nil
}

// List returns every registered agent's capabilities keyed by name. It
// is total and never fails; used for capability discovery, never for
// routing.
func (r *Registry) List() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]string, len(r.agents))
	for name, a := range r.agents {
		out[name] = a.Capabilities()
	}
	return out
}

// Names returns the sorted names of all registered agents.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
