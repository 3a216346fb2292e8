package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/agentchain/core"
	"github.com/hupe1980/agentchain/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrchestrator(entry string, agents ...core.Agent) *Orchestrator {
	reg := NewRegistry()
	for _, a := range agents {
		reg.Register(a)
	}
	return New(reg, func(o *Options) { o.EntryAgent = entry })
}

func TestChat_TwoAgentHandOff(t *testing.T) {
	interpreter := testutil.NewStubAgent("CodeInterpreter", core.AgentResult{
		Success:   true,
		Data:      map[string]any{"analysis": "rows look clean", "results": []any{}},
		Message:   "analysis complete",
		NextAgent: "AnswerSynthesiser",
	})
	synthesiser := testutil.NewStubAgent("AnswerSynthesiser", core.AgentResult{
		Success: true,
		Data:    map[string]any{"answer": "Final text"},
		Message: "answer synthesized",
	})

	o := newOrchestrator("CodeInterpreter", interpreter, synthesiser)
	chainCtx := core.ChainContext{}
	res, err := o.Chat(context.Background(), "analyse my data", nil, chainCtx)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"CodeInterpreter", "AnswerSynthesiser"}, res.Chain)
	assert.Equal(t, "Final text", res.FinalAnswer)
	assert.Len(t, res.AgentResults, len(res.Chain))
	for i, name := range res.Chain {
		assert.Equal(t, name, res.AgentResults[name].AgentName, "chain[%d]", i)
	}

	// Context carries the merged payload of every successful agent.
	assert.Contains(t, chainCtx, "codeinterpreter_data")
	assert.Contains(t, chainCtx, "answersynthesiser_data")

	// The second agent saw the first agent's data.
	inputs := synthesiser.Inputs()
	require.Len(t, inputs, 1)
	assert.NotNil(t, inputs[0].Context.AgentData("CodeInterpreter"))
}

func TestChat_EntryAgentFailure(t *testing.T) {
	entry := testutil.NewStubAgent("Entry", core.NewErrorResult("Entry", "bad input"))

	o := newOrchestrator("Entry", entry)
	chainCtx := core.ChainContext{}
	res, err := o.Chat(context.Background(), "hi", nil, chainCtx)

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"Entry"}, res.Chain)
	assert.Empty(t, chainCtx, "failed agent must not poison context")
}

func TestChat_NoHandOffAfterFailure(t *testing.T) {
	failing := testutil.NewStubAgent("A", core.AgentResult{
		Success:   false,
		Data:      map[string]any{"error": "boom"},
		Message:   "boom",
		NextAgent: "B",
	})
	next := testutil.NewStubAgent("B")

	o := newOrchestrator("A", failing, next)
	res, err := o.Chat(context.Background(), "go", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, res.Chain)
	assert.Zero(t, next.CallCount(), "NextAgent must not be followed after a failure")
	assert.False(t, res.Success)
}

func TestChat_RoutingCycle(t *testing.T) {
	a := testutil.NewStubAgent("A", core.AgentResult{Success: true, Data: map[string]any{"answer": "from A"}, NextAgent: "B"})
	b := testutil.NewStubAgent("B", core.AgentResult{Success: true, Data: map[string]any{"answer": "from B"}, NextAgent: "A"})

	done := make(chan struct{})
	var res *core.ChainResult
	var err error
	o := newOrchestrator("A", a, b)
	go func() {
		res, err = o.Chat(context.Background(), "loop", nil, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cycle must terminate, not hang")
	}

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, res.Chain)
	assert.True(t, res.CycleDetected)
	assert.True(t, res.Success, "success derives from the last good result")
	assert.Equal(t, "from B", res.FinalAnswer)
	assert.Equal(t, 1, a.CallCount(), "revisited agent must not run twice")
}

func TestChat_UnknownNextAgent(t *testing.T) {
	entry := testutil.NewStubAgent("Entry", core.AgentResult{
		Success: true, Data: map[string]any{"answer": "partial"}, NextAgent: "Ghost",
	})

	o := newOrchestrator("Entry", entry)
	res, err := o.Chat(context.Background(), "go", nil, nil)

	var uerr *UnknownAgentError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "Ghost", uerr.Name)
	assert.Equal(t, "Entry", uerr.RequestedBy)
	assert.ErrorIs(t, err, ErrAgentNotFound)

	// The requesting agent's result is still recorded.
	require.NotNil(t, res)
	assert.Equal(t, []string{"Entry"}, res.Chain)
	assert.Contains(t, res.AgentResults, "Entry")
	assert.False(t, res.Success)
}

func TestChat_UnknownEntryAgent(t *testing.T) {
	o := newOrchestrator("Missing")
	res, err := o.Chat(context.Background(), "go", nil, nil)

	var uerr *UnknownAgentError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "Missing", uerr.Name)
	assert.Empty(t, uerr.RequestedBy)
	assert.Empty(t, res.Chain)
}

func TestChat_TerminatesWithinRegistrySize(t *testing.T) {
	// a1 -> a2 -> a3, acyclic: chain length bounded by registry size.
	a1 := testutil.NewStubAgent("a1", core.AgentResult{Success: true, NextAgent: "a2"})
	a2 := testutil.NewStubAgent("a2", core.AgentResult{Success: true, NextAgent: "a3"})
	a3 := testutil.NewStubAgent("a3", core.AgentResult{Success: true, Data: map[string]any{"answer": "done"}})

	o := newOrchestrator("a1", a1, a2, a3)
	res, err := o.Chat(context.Background(), "go", nil, nil)

	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Chain), 3)
	assert.Equal(t, []string{"a1", "a2", "a3"}, res.Chain)
}

func TestChat_Idempotence(t *testing.T) {
	run := func() *core.ChainResult {
		a := testutil.NewStubAgent("A", core.AgentResult{Success: true, Data: map[string]any{"k": 1}, NextAgent: "B"})
		b := testutil.NewStubAgent("B", core.AgentResult{Success: true, Data: map[string]any{"answer": "stable"}})
		o := newOrchestrator("A", a, b)
		res, err := o.Chat(context.Background(), "same message", map[string]string{"f.csv": "/tmp/f.csv"}, core.ChainContext{})
		require.NoError(t, err)
		return res
	}

	first, second := run(), run()
	assert.Equal(t, first.Chain, second.Chain)
	assert.Equal(t, first.AgentResults, second.AgentResults)
	assert.Equal(t, first.FinalAnswer, second.FinalAnswer)
}

type panicAgent struct{ name string }

func (p *panicAgent) Name() string           { return p.name }
func (p *panicAgent) Capabilities() []string { return nil }
func (p *panicAgent) Process(context.Context, core.Input) core.AgentResult {
	panic("unexpected fault")
}

func TestChat_PanicConvertedToFailure(t *testing.T) {
	o := newOrchestrator("Panicky", &panicAgent{name: "Panicky"})
	res, err := o.Chat(context.Background(), "go", nil, nil)

	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Contains(t, res.AgentResults, "Panicky")
	assert.Contains(t, res.AgentResults["Panicky"].Message, "panic")
}

type slowAgent struct{ name string }

func (s *slowAgent) Name() string           { return s.name }
func (s *slowAgent) Capabilities() []string { return nil }
func (s *slowAgent) Process(ctx context.Context, _ core.Input) core.AgentResult {
	select {
	case <-time.After(5 * time.Second):
		return core.AgentResult{Success: true, AgentName: s.name}
	case <-ctx.Done():
		return core.NewErrorResult(s.name, ctx.Err().Error())
	}
}

func TestChat_AgentTimeout(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&slowAgent{name: "Slow"})
	o := New(reg, func(o *Options) {
		o.EntryAgent = "Slow"
		o.AgentTimeout = 20 * time.Millisecond
	})

	res, err := o.Chat(context.Background(), "go", nil, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)

	data, ok := res.AgentResults["Slow"].Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "timeout", data["error"])
}

func TestExecutionHistory_RecordedAndCapped(t *testing.T) {
	a := testutil.NewStubAgent("A", core.AgentResult{Success: true, Data: map[string]any{"answer": "x"}})
	reg := NewRegistry()
	reg.Register(a)
	o := New(reg, func(o *Options) {
		o.EntryAgent = "A"
		o.MaxHistory = 2
	})

	for i := 0; i < 3; i++ {
		_, err := o.Chat(context.Background(), "msg", nil, nil)
		require.NoError(t, err)
	}

	hist := o.ExecutionHistory()
	assert.Len(t, hist, 2, "history must honor the configured cap")
	assert.NotNil(t, hist[0].Result)
}

func TestExecutionHistory_IsolatedFromCallerMutation(t *testing.T) {
	a := testutil.NewStubAgent("A", core.AgentResult{Success: true, Data: map[string]any{"answer": "x"}})
	o := newOrchestrator("A", a)

	res, err := o.Chat(context.Background(), "msg", nil, nil)
	require.NoError(t, err)

	res.Success = false
	res.FinalAnswer = "tampered"
	res.Chain[0] = "tampered"
	res.AgentResults["A"] = core.AgentResult{Message: "tampered"}

	hist := o.ExecutionHistory()
	require.Len(t, hist, 1)
	assert.True(t, hist[0].Result.Success)
	assert.Equal(t, "x", hist[0].Result.FinalAnswer)
	assert.Equal(t, []string{"A"}, hist[0].Result.Chain)
	assert.Equal(t, "x", core.FinalAnswer(hist[0].Result.AgentResults["A"]))
}
