package core

import "strings"

// ChainContext is the mutable per-session key/value map that accumulates
// each agent's output during a chain. Keys follow the
// "<agent_name_lowercased>_data" convention (see ContextKey).
//
// Agents read the context inside Process but never write it; only the
// orchestrator merges results in (after a successful agent invocation),
// which keeps a single writer per chain and makes write conflicts
// impossible within one session.
type ChainContext map[string]any

// ContextKey returns the context key under which an agent's data payload
// is merged.
func ContextKey(agentName string) string {
	return strings.ToLower(agentName) + "_data"
}

// AgentData returns the payload a prior agent stored in the context, or
// nil if that agent has not contributed to this session yet.
func (c ChainContext) AgentData(agentName string) any {
	if c == nil {
		return nil
	}
	return c[ContextKey(agentName)]
}

// Clone returns a shallow copy safe for independent key mutation. Payload
// values are shared; agents treat them as read-only.
func (c ChainContext) Clone() ChainContext {
	clone := make(ChainContext, len(c))
	for k, v := range c {
		clone[k] = v
	}
	return clone
}
