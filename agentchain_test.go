package agentchain

import (
	"context"
	"testing"

	"github.com/hupe1980/agentchain/core"
	"github.com/hupe1980/agentchain/internal/testutil"
	"github.com/hupe1980/agentchain/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChain(entry string, agents ...core.Agent) *AgentChain {
	c := New(func(o *Options) { o.EntryAgent = entry })
	for _, a := range agents {
		c.RegisterAgent(a)
	}
	return c
}

func TestChat_CreatesSessionAndFoldsContext(t *testing.T) {
	entry := testutil.NewStubAgent("Solver", core.AgentResult{
		Success: true,
		Data:    map[string]any{"answer": "42"},
		Message: "solved",
	})
	c := newChain("Solver", entry)

	res, sessionID, err := c.Chat(context.Background(), "", "what is the answer?")
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)
	assert.True(t, res.Success)
	assert.Equal(t, "42", res.FinalAnswer)

	sess, err := c.Session(sessionID)
	require.NoError(t, err)
	assert.Contains(t, sess.Context, "solver_data")
	require.Len(t, sess.History, 1)
	assert.Equal(t, "what is the answer?", sess.History[0].Message)
}

func TestChat_ContextCarriesAcrossCalls(t *testing.T) {
	entry := testutil.NewStubAgent("Solver",
		core.AgentResult{Success: true, Data: map[string]any{"answer": "first"}},
		core.AgentResult{Success: true, Data: map[string]any{"answer": "second"}},
	)
	c := newChain("Solver", entry)

	_, sessionID, err := c.Chat(context.Background(), "", "one")
	require.NoError(t, err)
	_, _, err = c.Chat(context.Background(), sessionID, "two")
	require.NoError(t, err)

	inputs := entry.Inputs()
	require.Len(t, inputs, 2)
	assert.Empty(t, inputs[0].Context)
	assert.Contains(t, inputs[1].Context, "solver_data", "second call must see first call's context")
}

func TestChat_FailureDoesNotTouchSessionContext(t *testing.T) {
	entry := testutil.NewStubAgent("Solver", core.NewErrorResult("Solver", "bad input"))
	c := newChain("Solver", entry)

	res, sessionID, err := c.Chat(context.Background(), "", "hi")
	require.NoError(t, err)
	assert.False(t, res.Success)

	sess, err := c.Session(sessionID)
	require.NoError(t, err)
	assert.Empty(t, sess.Context)
	assert.Len(t, sess.History, 1, "failed turns are still recorded")
}

func TestChat_StructuralErrorPropagates(t *testing.T) {
	c := newChain("Missing")
	_, _, err := c.Chat(context.Background(), "", "hi")
	assert.ErrorIs(t, err, orchestrator.ErrAgentNotFound)
}

func TestSaveUploadAndChatAboutFile(t *testing.T) {
	entry := testutil.NewStubAgent("Solver", core.AgentResult{
		Success: true,
		Data:    map[string]any{"answer": "analysed"},
	})
	c := newChain("Solver", entry)

	path, sessionID, err := c.SaveUpload("", "data.csv", []byte("x,y\n1,2\n"))
	require.NoError(t, err)
	require.NotEmpty(t, path)

	res, err := c.ChatAboutFile(context.Background(), sessionID, "analyse this", "data.csv")
	require.NoError(t, err)
	assert.True(t, res.Success)

	inputs := entry.Inputs()
	require.Len(t, inputs, 1)
	assert.Equal(t, map[string]string{"data.csv": path}, inputs[0].Files)

	sess, err := c.Session(sessionID)
	require.NoError(t, err)
	require.Len(t, sess.History, 1)
	assert.Equal(t, "data.csv", sess.History[0].File)
}

func TestDeleteSession(t *testing.T) {
	c := newChain("Solver", testutil.NewStubAgent("Solver"))
	_, sessionID, err := c.SaveUpload("", "data.csv", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, c.DeleteSession(sessionID))
	_, err = c.Session(sessionID)
	assert.Error(t, err)
}

func TestExecutionHistoryExposed(t *testing.T) {
	entry := testutil.NewStubAgent("Solver", core.AgentResult{Success: true, Data: map[string]any{"answer": "x"}})
	c := newChain("Solver", entry)

	_, _, err := c.Chat(context.Background(), "", "hi")
	require.NoError(t, err)

	hist := c.ExecutionHistory()
	require.Len(t, hist, 1)
	assert.Equal(t, "hi", hist[0].Message)
}
