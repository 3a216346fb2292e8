package agent

import (
	"sync"

	"github.com/hupe1980/agentchain/core"
	"github.com/hupe1980/agentchain/model"
)

// BaseAgent bundles the identity and private working memory shared by
// concrete agents. Embed it and supply Process and Capabilities to
// satisfy core.Agent.
//
// The conversation history is the agent's local memory, independent of
// the shared ChainContext: append-only, never read by other agents and
// discarded with the agent itself.
type BaseAgent struct {
	name    string
	backend model.Backend

	mu      sync.Mutex
	history []core.Message
}

// NewBaseAgent constructs a BaseAgent. The backend may be nil for agents
// that do not generate text.
func NewBaseAgent(name string, backend model.Backend) BaseAgent {
	return BaseAgent{name: name, backend: backend}
}

// Name returns the agent's registry name.
func (b *BaseAgent) Name() string { return b.name }

// Backend returns the generation backend, possibly nil.
func (b *BaseAgent) Backend() model.Backend { return b.backend }

// AddToHistory appends a message to the private conversation history.
func (b *BaseAgent) AddToHistory(msg core.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, msg)
}

// History returns a copy of the private conversation history.
func (b *BaseAgent) History() []core.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.Message, len(b.history))
	copy(out, b.history)
	return out
}

// ClearHistory resets the private conversation history.
func (b *BaseAgent) ClearHistory() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
}
