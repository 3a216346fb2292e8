// Package orchestrator drives the agent hand-off chain: given a user
// message, optional uploaded files and the session's accumulated
// context, it invokes the entry agent, follows each result's NextAgent
// instruction until the chain terminates, merges successful payloads
// into the context and records the call in a process-wide execution
// history.
//
// The orchestrator is stateless with respect to sessions - the caller
// hands a ChainContext in and persists it afterwards. Within one Chat
// call agents run strictly sequentially; independent Chat calls for
// different sessions may run concurrently.
package orchestrator
