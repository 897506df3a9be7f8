package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreLoadsPersistedToken(t *testing.T) {
	store := NewMemoryTokenStore()
	require.NoError(t, store.Set(sessionTokenKey, "persisted"))

	sessions, err := NewSessionStore(store)
	require.NoError(t, err)

	token, ok := sessions.Token()
	require.True(t, ok)
	assert.Equal(t, "persisted", token)

	// Until a resume confirms the identity the user ID is unknown
	session, ok := sessions.Session()
	require.True(t, ok)
	assert.Empty(t, session.UserID)
}

func TestSessionStoreStartsEmptyWithoutToken(t *testing.T) {
	sessions, err := NewSessionStore(NewMemoryTokenStore())
	require.NoError(t, err)

	_, ok := sessions.Token()
	assert.False(t, ok)
	_, ok = sessions.Session()
	assert.False(t, ok)
}

func TestSessionSetPersistsToken(t *testing.T) {
	store := NewMemoryTokenStore()
	sessions, err := NewSessionStore(store)
	require.NoError(t, err)

	require.NoError(t, sessions.Set("tok", "u1"))

	value, err := store.Get(sessionTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok", value)

	session, ok := sessions.Session()
	require.True(t, ok)
	assert.Equal(t, "u1", session.UserID)
}

func TestSessionSetUserIDFillsResumedIdentity(t *testing.T) {
	store := NewMemoryTokenStore()
	require.NoError(t, store.Set(sessionTokenKey, "tok"))
	sessions, err := NewSessionStore(store)
	require.NoError(t, err)

	sessions.SetUserID("u7")

	session, ok := sessions.Session()
	require.True(t, ok)
	assert.Equal(t, "u7", session.UserID)
}

func TestSessionSetUserIDWithoutSessionIsNoOp(t *testing.T) {
	sessions, err := NewSessionStore(NewMemoryTokenStore())
	require.NoError(t, err)

	sessions.SetUserID("u7")

	_, ok := sessions.Session()
	assert.False(t, ok)
}

func TestSessionClearRemovesPersistedToken(t *testing.T) {
	store := NewMemoryTokenStore()
	sessions, err := NewSessionStore(store)
	require.NoError(t, err)
	require.NoError(t, sessions.Set("tok", "u1"))

	require.NoError(t, sessions.Clear())

	_, ok := sessions.Token()
	assert.False(t, ok)
	value, err := store.Get(sessionTokenKey)
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestLastEmailRoundTrip(t *testing.T) {
	sessions, err := NewSessionStore(NewMemoryTokenStore())
	require.NoError(t, err)

	assert.Empty(t, sessions.LastEmail())
	require.NoError(t, sessions.SetLastEmail("me@example.com"))
	assert.Equal(t, "me@example.com", sessions.LastEmail())

	// Survives a logout: prefill should outlive the session
	require.NoError(t, sessions.Clear())
	assert.Equal(t, "me@example.com", sessions.LastEmail())
}
