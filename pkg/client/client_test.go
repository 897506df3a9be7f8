package client

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, setup func(backend *MockBackend)) (*Client, *MockBackend) {
	t.Helper()

	backend := NewMockBackend()
	if setup != nil {
		setup(backend)
	}

	runtime, err := New(backend, NewMemoryTokenStore(), Options{RetryDelay: 5 * time.Millisecond})
	require.NoError(t, err)
	runtime.Start()
	t.Cleanup(runtime.Close)

	return runtime, backend
}

func readyTestClient(t *testing.T, setup func(backend *MockBackend)) (*Client, *MockBackend) {
	t.Helper()

	runtime, backend := newTestClient(t, func(backend *MockBackend) {
		backend.SetUser(User{ID: "local"})
		backend.SetSessionToken("tok")
		if setup != nil {
			setup(backend)
		}
	})

	runtime.Connect("server:1234")
	require.Eventually(t, func() bool {
		return runtime.ConnectionManager().State() == StateAuthenticating
	}, 2*time.Second, 2*time.Millisecond)
	require.NoError(t, runtime.Login("me@example.com", "hunter2"))

	// The user identity lands through the dispatch loop
	require.Eventually(t, func() bool {
		session, ok := runtime.Sessions.Session()
		return ok && session.UserID == "local"
	}, 2*time.Second, 2*time.Millisecond)

	return runtime, backend
}

func TestSendMessageEntersChannelLog(t *testing.T) {
	runtime, backend := readyTestClient(t, nil)

	msg, err := runtime.SendMessage("ch", "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Len(t, backend.SentMessages, 1)

	require.Eventually(t, func() bool {
		return len(runtime.Messages.Messages("ch")) == 1
	}, 2*time.Second, 2*time.Millisecond)
}

func TestFetchMessagesLoadsHistory(t *testing.T) {
	runtime, _ := readyTestClient(t, func(backend *MockBackend) {
		backend.SetFetchedMessages("ch", []Message{
			{ID: "m1", SentAt: 5},
			{ID: "m2", SentAt: 2},
		})
	})

	require.NoError(t, runtime.FetchMessages("ch", 50, 0))

	require.Eventually(t, func() bool {
		return len(runtime.Messages.Messages("ch")) == 2
	}, 2*time.Second, 2*time.Millisecond)

	log := runtime.Messages.Messages("ch")
	assert.Equal(t, "m2", log[0].ID)
	assert.Equal(t, "m1", log[1].ID)
}

func TestFriendRequestPreChecksSkipBackend(t *testing.T) {
	runtime, backend := readyTestClient(t, func(backend *MockBackend) {
		backend.SetUser(User{ID: "local", Friends: []string{"f1"}})
	})

	assert.ErrorIs(t, runtime.SendFriendRequest("f1"), ErrAlreadyFriends)
	assert.ErrorIs(t, runtime.ApproveFriendRequest("nobody"), ErrNoPendingRequest)
	assert.ErrorIs(t, runtime.RejectFriendRequest("nobody"), ErrNoPendingRequest)
	assert.ErrorIs(t, runtime.RemoveFriend("stranger"), ErrNotFriend)
	assert.Empty(t, backend.FriendCalls)
}

func TestFriendRequestLifecycleThroughFacade(t *testing.T) {
	runtime, backend := readyTestClient(t, nil)

	require.NoError(t, runtime.SendFriendRequest("u2"))
	require.Eventually(t, func() bool {
		return runtime.Relationships.HasPendingRequest("u2")
	}, 2*time.Second, 2*time.Millisecond)

	assert.ErrorIs(t, runtime.SendFriendRequest("u2"), ErrRequestExists)

	require.NoError(t, runtime.ApproveFriendRequest("u2"))
	require.Eventually(t, func() bool {
		return runtime.Relationships.IsFriend("u2")
	}, 2*time.Second, 2*time.Millisecond)

	assert.Equal(t, []string{"send:u2", "approve:u2"}, backend.FriendCalls)
}

func TestJoinCallFlow(t *testing.T) {
	runtime, backend := readyTestClient(t, nil)

	require.NoError(t, runtime.JoinCall("ch"))

	require.Eventually(t, func() bool {
		_, ok := runtime.Voice.ActiveCall()
		return ok
	}, 2*time.Second, 2*time.Millisecond)

	active, _ := runtime.Voice.ActiveCall()
	assert.Equal(t, "ch", active.ChannelID)
	assert.NotZero(t, active.JoinedAt)
	assert.Equal(t, []string{"join:ch"}, backend.VoiceCalls)
}

func TestRejectedJoinLeavesNoCall(t *testing.T) {
	runtime, _ := readyTestClient(t, func(backend *MockBackend) {
		backend.SetJoinError(errors.New("call is full"))
	})

	require.Error(t, runtime.JoinCall("ch"))

	// The rejection travels the same pipeline as the start
	require.Eventually(t, func() bool {
		_, pending := runtime.Voice.PendingChannel()
		return !pending
	}, 2*time.Second, 2*time.Millisecond)
	_, inCall := runtime.Voice.ActiveCall()
	assert.False(t, inCall)
}

func TestPushEventsFlowIntoStores(t *testing.T) {
	runtime, backend := readyTestClient(t, nil)

	backend.SimulatePushEvent(MessageAppended{ChannelID: "ch", Message: Message{ID: "m1", SentAt: 1}})
	backend.SimulatePushEvent(FriendRequestReceived{Request: FriendRequest{FriendID: "u3", SentAt: 2}})

	require.Eventually(t, func() bool {
		return len(runtime.Messages.Messages("ch")) == 1 && runtime.Relationships.HasPendingRequest("u3")
	}, 2*time.Second, 2*time.Millisecond)
}

func TestTransportErrorTriggersReconnect(t *testing.T) {
	runtime, backend := readyTestClient(t, nil)
	require.Eventually(t, func() bool {
		return runtime.ConnectionManager().State() == StateReady
	}, 2*time.Second, 2*time.Millisecond)

	backend.SimulateTransportError(errors.New("connection reset"))

	// The manager cycles through reconnecting back to ready
	require.Eventually(t, func() bool {
		return backend.GetConnectAttempts() >= 2 && runtime.ConnectionManager().State() == StateReady
	}, 2*time.Second, 2*time.Millisecond)
}

func TestReconnectRefreshesFetchedHistory(t *testing.T) {
	runtime, backend := readyTestClient(t, func(backend *MockBackend) {
		backend.SetFetchedMessages("ch", []Message{
			{ID: "m1", SentAt: 1},
			{ID: "m2", SentAt: 2},
		})
	})

	require.NoError(t, runtime.FetchMessages("ch", 50, 0))
	require.Eventually(t, func() bool {
		return len(runtime.Messages.Messages("ch")) == 2
	}, 2*time.Second, 2*time.Millisecond)

	backend.SetAuthenticated(false)
	backend.SimulateTransportError(errors.New("connection reset"))

	require.Eventually(t, func() bool {
		return runtime.ConnectionManager().State() == StateReady && backend.GetConnectAttempts() >= 2
	}, 2*time.Second, 2*time.Millisecond)

	// The reconnect reset emptied the log; the ready hook refills it
	require.Eventually(t, func() bool {
		return len(runtime.Messages.Messages("ch")) == 2
	}, 2*time.Second, 2*time.Millisecond)

	// And the resumed identity survived the reset
	session, ok := runtime.Sessions.Session()
	require.True(t, ok)
	assert.Equal(t, "local", session.UserID)
}

func TestSetVoiceStateUpdatesLocalFlags(t *testing.T) {
	runtime, _ := readyTestClient(t, nil)

	require.NoError(t, runtime.SetVoiceState(true, false))

	require.Eventually(t, func() bool {
		return runtime.Voice.VoiceStateFor("local").Muted
	}, 2*time.Second, 2*time.Millisecond)
}
