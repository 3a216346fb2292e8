package orchestrator

import (
	"errors"
	"fmt"
)

// ErrAgentNotFound is the sentinel wrapped by every failed registry
// lookup.
var ErrAgentNotFound = errors.New("agent not found")

// UnknownAgentError reports a structural routing failure: the entry
// agent or a NextAgent hand-off named an agent that is not registered.
// It aborts the chain; the requesting agent's own result is still
// recorded in the partial ChainResult.
type UnknownAgentError struct {
	// Name is the unresolvable agent name.
	Name string
	// RequestedBy is the agent whose hand-off named it, empty when the
	// entry agent itself is unknown.
	RequestedBy string
}

func (e *UnknownAgentError) Error() string {
	if e.RequestedBy == "" {
		return fmt.Sprintf("unknown entry agent %q", e.Name)
	}
	return fmt.Sprintf("unknown agent %q requested by %q", e.Name, e.RequestedBy)
}

func (e *UnknownAgentError) Unwrap() error { return ErrAgentNotFound }
