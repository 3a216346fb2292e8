package core

// AgentResult is the structured outcome of a single agent invocation.
// It is a tagged value, not an error: a failed invocation is a valid
// AgentResult with Success == false and an error description in Data and
// Message.
//
// NextAgent, when non-empty, must name an agent registered in the
// registry; an empty NextAgent terminates the chain after this result.
// Data is opaque to the orchestrator - it is read only by the context
// merge step and by downstream agents that know its shape.
type AgentResult struct {
	Success   bool           `json:"success"`
	Data      any            `json:"data"`
	Message   string         `json:"message"`
	AgentName string         `json:"agent_name"`
	NextAgent string         `json:"next_agent,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewErrorResult builds the canonical failure result an agent returns
// when an internal fault is caught.
func NewErrorResult(agentName, description string) AgentResult {
	return AgentResult{
		Success:   false,
		Data:      map[string]any{"error": description},
		Message:   description,
		AgentName: agentName,
	}
}

// ChainResult aggregates one orchestrated call: every agent result keyed
// by agent name, the ordered chain of agent names visited, and the final
// user-facing answer.
type ChainResult struct {
	Success       bool                   `json:"success"`
	AgentResults  map[string]AgentResult `json:"agent_results"`
	FinalAnswer   string                 `json:"final_answer"`
	Chain         []string               `json:"chain"`
	CycleDetected bool                   `json:"cycle_detected,omitempty"`
}

// Clone returns a copy with its own AgentResults map and Chain slice,
// insulating stored results from later caller mutation. Data payloads
// are shared and treated as read-only.
func (r *ChainResult) Clone() *ChainResult {
	clone := *r
	clone.AgentResults = make(map[string]AgentResult, len(r.AgentResults))
	for k, v := range r.AgentResults {
		clone.AgentResults[k] = v
	}
	clone.Chain = make([]string, len(r.Chain))
	copy(clone.Chain, r.Chain)
	return &clone
}

// FinalAnswer extracts the user-facing answer from a result by
// convention: data.formatted_answer when present, else data.answer, else
// the result's human-readable message.
func FinalAnswer(res AgentResult) string {
	if data, ok := res.Data.(map[string]any); ok {
		if v, ok := data["formatted_answer"].(string); ok && v != "" {
			return v
		}
		if v, ok := data["answer"].(string); ok && v != "" {
			return v
		}
	}
	return res.Message
}
