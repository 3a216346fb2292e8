// Package agent contains the concrete agents shipped with AgentChain:
// the code interpreter entry agent, the answer synthesiser and a small
// calculator example. New agents embed BaseAgent, implement core.Agent
// and register into the orchestrator's registry; nothing is discovered
// reflectively.
package agent
