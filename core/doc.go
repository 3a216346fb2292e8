// Package core defines the shared data model of AgentChain: messages,
// agent results, chain results, the per-session context map and the
// Agent contract every processing unit implements.
//
// The types here are deliberately free of orchestration logic. The
// orchestrator package drives the hand-off loop; concrete agents live in
// the agent package. Failure is always represented as data
// (AgentResult.Success == false), never as an error return or panic
// crossing the agent boundary.
package core
