// Package server exposes the AgentChain facade over HTTP: chat, file
// upload, session inspection and execution history. It is a thin I/O
// wrapper; every orchestration invariant lives in the orchestrator
// package.
package server
