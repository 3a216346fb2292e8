// Package model abstracts the text generation backend individual agents
// call. The orchestration core never talks to a backend directly; agents
// own their prompts and are responsible for converting any BackendError
// into a failed AgentResult instead of letting it escape.
//
// Provider adapters live in subpackages (anthropic, openai, ollama). The
// MockBackend here serves tests and examples with deterministic canned
// completions.
package model
