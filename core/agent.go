package core

import "context"

// Input bundles the arguments handed to an agent for one invocation: the
// user's query, the accumulated session context and the uploaded files
// available to this session (filename -> local path). The orchestrator
// never opens or validates the file paths itself; the responsible agent
// does.
type Input struct {
	Query   string
	Context ChainContext
	Files   map[string]string
}

// Agent is the capability contract every processing unit implements.
//
// Process must not panic and must not signal failure through the type
// system: any internal fault (malformed input, backend unavailability,
// parse error) is caught inside the agent and converted to
// AgentResult{Success: false}. The orchestrator additionally guards the
// boundary with a recover, but well-behaved agents never rely on it.
//
// Side effects (such as writing generated artifacts to disk) are
// permitted but must tolerate re-invocation; the orchestrator does not
// currently retry, yet agents must not assume at-most-once delivery.
//
// Capabilities is static descriptive text used only for discovery and
// listing. Routing is explicit via AgentResult.NextAgent, never inferred
// from capability text.
type Agent interface {
	Name() string
	Process(ctx context.Context, input Input) AgentResult
	Capabilities() []string
}
