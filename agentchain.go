// Package agentchain provides a high-level facade over the orchestration
// core and its service abstractions (sessions, uploads, logging),
// enabling quick construction of hand-off-driven multi-agent systems.
// Most applications interact with this package by:
//  1. Creating an AgentChain via New() (optionally overriding the
//     default in-memory services)
//  2. Registering one or more agents
//  3. Calling Chat per user message; the facade loads the session,
//     runs the chain and folds successful results back into the
//     session context for the next call.
//
// The orchestration core itself stays stateless; all session state
// lives behind the SessionStore.
package agentchain

import (
	"context"
	"time"

	"github.com/hupe1980/agentchain/artifact"
	"github.com/hupe1980/agentchain/core"
	"github.com/hupe1980/agentchain/logging"
	"github.com/hupe1980/agentchain/orchestrator"
	"github.com/hupe1980/agentchain/session"
)

// Options configures the AgentChain instance.
type Options struct {
	// EntryAgent is the fixed first agent of every chain.
	EntryAgent string
	// AgentTimeout bounds each agent invocation, zero disables.
	AgentTimeout time.Duration
	// MaxHistory caps the execution history, zero keeps it unbounded.
	MaxHistory int

	// Stores (default to in-memory implementations if not provided).
	SessionStore core.SessionStore
	UploadStore  artifact.Store

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// AgentChain aggregates the orchestrator and its services.
type AgentChain struct {
	registry *orchestrator.Registry
	orch     *orchestrator.Orchestrator
	sessions core.SessionStore
	uploads  artifact.Store
	logger   logging.Logger
}

// New creates an AgentChain with optional overrides. Any unset service
// is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *AgentChain {
	opts := Options{
		EntryAgent:   orchestrator.DefaultEntryAgent,
		MaxHistory:   1000,
		SessionStore: session.NewInMemoryStore(),
		UploadStore:  artifact.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := orchestrator.NewRegistry()
	orch := orchestrator.New(registry, func(o *orchestrator.Options) {
		o.EntryAgent = opts.EntryAgent
		o.AgentTimeout = opts.AgentTimeout
		o.MaxHistory = opts.MaxHistory
		o.Logger = opts.Logger
	})

	return &AgentChain{
		registry: registry,
		orch:     orch,
		sessions: opts.SessionStore,
		uploads:  opts.UploadStore,
		logger:   opts.Logger,
	}
}

// RegisterAgent adds an agent to the registry.
func (c *AgentChain) RegisterAgent(a core.Agent) { c.registry.Register(a) }

// ListAgents returns every registered agent's capabilities by name.
func (c *AgentChain) ListAgents() map[string][]string { return c.registry.List() }

// AgentNames returns the sorted registered agent names.
func (c *AgentChain) AgentNames() []string { return c.registry.Names() }

// EntryAgent returns the configured entry agent name.
func (c *AgentChain) EntryAgent() string { return c.orch.EntryAgent() }

// Chat runs one chain for the session using every file uploaded to it.
// An empty sessionID creates a new session; the effective id is
// returned. Successful agent payloads are folded into the session
// context and the call is appended to the session history.
func (c *AgentChain) Chat(ctx context.Context, sessionID, message string) (*core.ChainResult, string, error) {
	if sessionID == "" {
		sessionID = core.NewID()
	}
	sess, err := c.sessions.GetOrCreate(sessionID)
	if err != nil {
		return nil, sessionID, err
	}
	return c.chat(ctx, sessionID, message, "", sess.Files(), sess.ContextSnapshot())
}

// ChatAboutFile runs one chain over a single uploaded file, as the
// upload endpoint does when a message accompanies the upload.
func (c *AgentChain) ChatAboutFile(ctx context.Context, sessionID, message, filename string) (*core.ChainResult, error) {
	sess, err := c.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	files := map[string]string{}
	if path, ok := sess.Files()[filename]; ok {
		files[filename] = path
	}
	res, _, err := c.chat(ctx, sessionID, message, filename, files, sess.ContextSnapshot())
	return res, err
}

func (c *AgentChain) chat(
	ctx context.Context,
	sessionID, message, filename string,
	files map[string]string,
	chainCtx core.ChainContext,
) (*core.ChainResult, string, error) {
	result, err := c.orch.Chat(ctx, message, files, chainCtx)
	if err != nil {
		return result, sessionID, err
	}

	if result.Success {
		delta := core.ChainContext{}
		for name, res := range result.AgentResults {
			if res.Success {
				delta[core.ContextKey(name)] = res.Data
			}
		}
		if err := c.sessions.ApplyContext(sessionID, delta); err != nil {
			return result, sessionID, err
		}
	}

	turn := core.ChatTurn{
		Timestamp: time.Now().UTC(),
		Message:   message,
		File:      filename,
		Result:    result,
	}
	if err := c.sessions.AppendTurn(sessionID, turn); err != nil {
		return result, sessionID, err
	}
	return result, sessionID, nil
}

// SaveUpload stores an uploaded file for the session and records it in
// the session's file mapping. An empty sessionID creates a new session.
func (c *AgentChain) SaveUpload(sessionID, filename string, data []byte) (string, string, error) {
	if sessionID == "" {
		sessionID = core.NewID()
	}
	if _, err := c.sessions.GetOrCreate(sessionID); err != nil {
		return "", sessionID, err
	}
	path, err := c.uploads.Save(sessionID, filename, data)
	if err != nil {
		return "", sessionID, err
	}
	if err := c.sessions.AddFile(sessionID, filename, path); err != nil {
		return "", sessionID, err
	}
	return path, sessionID, nil
}

// Session returns the stored session.
func (c *AgentChain) Session(sessionID string) (*core.Session, error) {
	return c.sessions.Get(sessionID)
}

// DeleteSession removes a session and its uploaded files.
func (c *AgentChain) DeleteSession(sessionID string) error {
	if err := c.sessions.Delete(sessionID); err != nil {
		return err
	}
	return c.uploads.DeleteSession(sessionID)
}

// ExecutionHistory returns the recorded chain runs.
func (c *AgentChain) ExecutionHistory() []orchestrator.HistoryRecord {
	return c.orch.ExecutionHistory()
}
