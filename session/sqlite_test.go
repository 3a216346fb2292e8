package session

import (
	"path/filepath"
	"testing"

	"github.com/hupe1980/agentchain/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newSQLiteStore(t)

	sess, err := store.GetOrCreate("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)

	require.NoError(t, store.ApplyContext("s1", core.ChainContext{"calculator_data": map[string]any{"result": float64(5)}}))
	require.NoError(t, store.AppendTurn("s1", core.ChatTurn{Message: "add 2 and 3"}))
	require.NoError(t, store.AddFile("s1", "d.csv", "/tmp/d.csv"))

	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.Contains(t, got.Context, "calculator_data")
	require.Len(t, got.History, 1)
	assert.Equal(t, "add 2 and 3", got.History[0].Message)
	assert.Equal(t, "/tmp/d.csv", got.UploadedFiles["d.csv"])
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store := newSQLiteStore(t)

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete("missing"), ErrSessionNotFound)
}

func TestSQLiteStore_DeleteAndList(t *testing.T) {
	store := newSQLiteStore(t)

	_, err := store.GetOrCreate("a")
	require.NoError(t, err)
	_, err = store.GetOrCreate("b")
	require.NoError(t, err)

	ids, err := store.List()
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	require.NoError(t, store.Delete("a"))
	ids, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}
