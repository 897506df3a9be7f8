package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestState(t *testing.T, path string) *State {
	t.Helper()
	state, err := OpenState(path)
	require.NoError(t, err)
	t.Cleanup(func() { state.Close() })
	return state
}

func TestStateGetSetRemove(t *testing.T) {
	state := openTestState(t, filepath.Join(t.TempDir(), "state.db"))

	value, err := state.Get("missing")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, state.Set("key", "value"))
	value, err = state.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	require.NoError(t, state.Set("key", "updated"))
	value, err = state.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "updated", value)

	require.NoError(t, state.Remove("key"))
	value, err = state.Get("key")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	state, err := OpenState(path)
	require.NoError(t, err)
	require.NoError(t, state.Set(sessionTokenKey, "survivor"))
	require.NoError(t, state.Close())

	reopened := openTestState(t, path)
	value, err := reopened.Get(sessionTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "survivor", value)
}

func TestStateCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "state.db")

	state := openTestState(t, path)
	assert.Equal(t, filepath.Dir(path), state.GetStateDir())
	require.NoError(t, state.Set("key", "value"))
}

func TestStateBacksSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	state := openTestState(t, path)

	sessions, err := NewSessionStore(state)
	require.NoError(t, err)
	require.NoError(t, sessions.Set("tok", "u1"))
	require.NoError(t, state.Close())

	// A fresh process sees the same session
	reopened := openTestState(t, path)
	restored, err := NewSessionStore(reopened)
	require.NoError(t, err)

	token, ok := restored.Token()
	require.True(t, ok)
	assert.Equal(t, "tok", token)
}
