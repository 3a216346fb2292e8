// Package session provides SessionStore implementations: a volatile
// in-memory store for tests and single-process deployments, and a
// SQLite-backed store for durable session state.
package session
