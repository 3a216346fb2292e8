// Package logging provides a tiny abstraction over slog so downstream
// code can depend on a minimal interface (Logger) while allowing users to
// plug any structured logger. It also offers a richer ChainLogger with
// contextual helpers (session, run, component) and domain specific
// helpers for agent invocations and chain executions.
package logging
