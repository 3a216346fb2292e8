package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentchain/core"
	"github.com/hupe1980/agentchain/logging"
)

// DefaultEntryAgent is the agent a chain starts from when no entry agent
// is configured. Routing beyond the entry point is agent-directed via
// AgentResult.NextAgent; this core does not classify intent.
const DefaultEntryAgent = "CodeInterpreter"

// Options holds configuration overrides passed to New().
type Options struct {
	// EntryAgent is the fixed first agent of every chain.
	EntryAgent string
	// AgentTimeout bounds each individual agent invocation. Expiry is
	// reported as a failed AgentResult with data {error: "timeout"},
	// stopping the chain. Zero disables the timeout.
	AgentTimeout time.Duration
	// MaxHistory caps the execution history ring. The oldest records
	// are evicted once the cap is reached; zero keeps history unbounded.
	MaxHistory int
	// Logger receives structured orchestration logs.
	Logger logging.Logger
}

// HistoryRecord is one entry of the process-wide execution history.
type HistoryRecord struct {
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Result    *core.ChainResult `json:"results"`
}

// Orchestrator drives bounded hand-off chains over a shared registry.
// It retains no session state; context flows in through Chat and mutated
// context flows back to the caller, who owns persistence. Safe for
// concurrent Chat calls.
type Orchestrator struct {
	registry *Registry

	entryAgent   string
	agentTimeout time.Duration
	maxHistory   int
	logger       logging.Logger

	histMu  sync.Mutex
	history []HistoryRecord
}

// New constructs an Orchestrator over the given registry.
func New(registry *Registry, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		EntryAgent: DefaultEntryAgent,
		MaxHistory: 1000,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		registry:     registry,
		entryAgent:   opts.EntryAgent,
		agentTimeout: opts.AgentTimeout,
		maxHistory:   opts.MaxHistory,
		logger:       opts.Logger,
	}
}

// EntryAgent returns the configured entry agent name.
func (o *Orchestrator) EntryAgent() string { return o.entryAgent }

// Chat runs one hand-off chain for the given message. Files maps
// uploaded filenames to local paths and may be nil. chainCtx is the
// session's accumulated context; successful agent payloads are merged
// into it in hand-off order under "<lower(agent)>_data" keys. Failed
// agents stop the chain and never contribute a context key, though their
// result is still reported.
//
// Chat returns a well-formed ChainResult for every terminating chain. A
// non-nil error is returned only for structural faults: an unresolvable
// entry agent or hand-off target yields an *UnknownAgentError alongside
// the partial ChainResult accumulated so far. A routing cycle does not
// abort the call; the chain terminates with CycleDetected set and
// success derived from the last good result.
func (o *Orchestrator) Chat(
	ctx context.Context,
	message string,
	files map[string]string,
	chainCtx core.ChainContext,
) (*core.ChainResult, error) {
	if chainCtx == nil {
		chainCtx = core.ChainContext{}
	}

	start := time.Now()
	result := &core.ChainResult{
		AgentResults: map[string]core.AgentResult{},
		Chain:        []string{},
	}

	var lastGood *core.AgentResult
	requestedBy := ""
	current := o.entryAgent
	visited := map[string]bool{}

	for current != "" {
		agent, err := o.registry.Get(current)
		if err != nil {
			uerr := &UnknownAgentError{Name: current, RequestedBy: requestedBy}
			o.logger.Error("chain aborted", "error", uerr)
			o.finish(message, result, lastGood, start, true)
			return result, uerr
		}

		if visited[current] {
			o.logger.Warn("routing cycle detected", "agent", current, "chain", result.Chain)
			result.CycleDetected = true
			break
		}
		visited[current] = true

		res := o.invoke(ctx, agent, core.Input{Query: message, Context: chainCtx, Files: files})
		res.AgentName = agent.Name()

		result.AgentResults[agent.Name()] = res
		result.Chain = append(result.Chain, agent.Name())

		if !res.Success {
			// Best-effort pipeline: a failure stops the chain and its
			// error payload stays out of the shared context.
			o.logger.Warn("agent failed", "agent", agent.Name(), "message", res.Message)
			break
		}

		chainCtx[core.ContextKey(agent.Name())] = res.Data
		lastGood = &res
		requestedBy = agent.Name()
		current = res.NextAgent
	}

	o.finish(message, result, lastGood, start, false)
	return result, nil
}

// finish derives the terminal fields, logs the run and records it in the
// execution history. An aborted chain is a failed call even when every
// completed agent succeeded; the partial results stay reported.
func (o *Orchestrator) finish(message string, result *core.ChainResult, lastGood *core.AgentResult, start time.Time, aborted bool) {
	result.Success = !aborted && lastGood != nil && len(result.Chain) > 0 &&
		result.AgentResults[result.Chain[len(result.Chain)-1]].Success
	if lastGood != nil {
		result.FinalAnswer = core.FinalAnswer(*lastGood)
	}

	if cl, ok := o.logger.(*logging.ChainLogger); ok {
		cl.LogChainExecution(o.entryAgent, len(result.Chain), time.Since(start), result.Success)
	} else {
		o.logger.Info("chain completed", "steps", len(result.Chain), "success", result.Success)
	}

	// History keeps its own copy; the returned result stays the caller's
	// to mutate.
	o.record(HistoryRecord{Timestamp: time.Now().UTC(), Message: message, Result: result.Clone()})
}

// invoke runs one agent with the boundary guards: a recover converting
// panics into failed results and the optional per-agent timeout.
func (o *Orchestrator) invoke(ctx context.Context, agent core.Agent, input core.Input) core.AgentResult {
	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if o.agentTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.agentTimeout)
	}
	defer cancel()

	start := time.Now()
	done := make(chan core.AgentResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- core.NewErrorResult(agent.Name(), fmt.Sprintf("agent panic: %v", r))
			}
		}()
		done <- agent.Process(runCtx, input)
	}()

	var res core.AgentResult
	select {
	case res = <-done:
	case <-runCtx.Done():
		desc := "timeout"
		if runCtx.Err() != context.DeadlineExceeded {
			desc = runCtx.Err().Error()
		}
		res = core.NewErrorResult(agent.Name(), desc)
	}

	if cl, ok := o.logger.(*logging.ChainLogger); ok {
		cl.LogAgentCall(agent.Name(), time.Since(start), res.Success)
	}
	return res
}

func (o *Orchestrator) record(rec HistoryRecord) {
	o.histMu.Lock()
	defer o.histMu.Unlock()
	o.history = append(o.history, rec)
	if o.maxHistory > 0 && len(o.history) > o.maxHistory {
		o.history = o.history[len(o.history)-o.maxHistory:]
	}
}

// ExecutionHistory returns a copy of the recorded chain runs in
// chronological order. Purely observational; it has no effect on
// routing.
func (o *Orchestrator) ExecutionHistory() []HistoryRecord {
	o.histMu.Lock()
	defer o.histMu.Unlock()
	out := make([]HistoryRecord, len(o.history))
	copy(out, o.history)
	return out
}
