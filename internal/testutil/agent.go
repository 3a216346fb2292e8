package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/agentchain/core"
)

// StubAgent is a scripted core.Agent for tests. Each Process call
// returns the next scripted result; once the script is exhausted the
// last result repeats. Inputs are recorded for later assertions.
type StubAgent struct {
	AgentName string
	Caps      []string
	Script    []core.AgentResult

	mu     sync.Mutex
	inputs []core.Input
}

// NewStubAgent builds a stub returning the given results in order.
func NewStubAgent(name string, script ...core.AgentResult) *StubAgent {
	return &StubAgent{
		AgentName: name,
		Caps:      []string{"stub capability"},
		Script:    script,
	}
}

// Name implements core.Agent.
func (s *StubAgent) Name() string { return s.AgentName }

// Capabilities implements core.Agent.
func (s *StubAgent) Capabilities() []string { return s.Caps }

// Process implements core.Agent.
func (s *StubAgent) Process(_ context.Context, input core.Input) core.AgentResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, input)

	if len(s.Script) == 0 {
		return core.AgentResult{Success: true, AgentName: s.AgentName, Message: "ok"}
	}
	idx := len(s.inputs) - 1
	if idx >= len(s.Script) {
		idx = len(s.Script) - 1
	}
	res := s.Script[idx]
	if res.AgentName == "" {
		res.AgentName = s.AgentName
	}
	return res
}

// Inputs returns the recorded Process inputs in call order.
func (s *StubAgent) Inputs() []core.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Input, len(s.inputs))
	copy(out, s.inputs)
	return out
}

// CallCount reports how many times Process ran.
func (s *StubAgent) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inputs)
}
