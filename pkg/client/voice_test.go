package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVoiceStore() *VoicePresenceStore {
	store := NewVoicePresenceStore()
	store.SetLocalUser("local")
	return store
}

func TestCallMarksLocalPending(t *testing.T) {
	store := newVoiceStore()

	store.Call("A")

	assert.Equal(t, PhasePending, store.VoiceStateFor("local").Phase)
	pending, ok := store.PendingChannel()
	require.True(t, ok)
	assert.Equal(t, "A", pending)
	_, inCall := store.ActiveCall()
	assert.False(t, inCall)
}

func TestJoinCallTransfersFromPriorCall(t *testing.T) {
	store := newVoiceStore()

	store.Call("A")
	store.JoinCall("B", 100)

	active, ok := store.ActiveCall()
	require.True(t, ok)
	assert.Equal(t, "B", active.ChannelID)

	// No residual reference to the first channel
	_, pending := store.PendingChannel()
	assert.False(t, pending)
	assert.Equal(t, PhaseActive, store.VoiceStateFor("local").Phase)
}

func TestJoinCallLeavesPreviousActiveCall(t *testing.T) {
	store := newVoiceStore()

	store.JoinCall("X", 100)
	store.JoinCall("Y", 200)

	active, ok := store.ActiveCall()
	require.True(t, ok)
	assert.Equal(t, "Y", active.ChannelID)
	assert.Equal(t, int64(200), active.JoinedAt)
}

func TestDuplicateJoinIsNoOp(t *testing.T) {
	store := newVoiceStore()

	store.JoinCall("X", 100)
	store.JoinCall("X", 999)

	active, ok := store.ActiveCall()
	require.True(t, ok)
	assert.Equal(t, int64(100), active.JoinedAt)
}

func TestLeaveCallResetsLocalState(t *testing.T) {
	store := newVoiceStore()

	store.JoinCall("X", 100)
	store.UpdateActivation("local", true)
	store.LeaveCall()

	_, inCall := store.ActiveCall()
	assert.False(t, inCall)
	state := store.VoiceStateFor("local")
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.False(t, state.Speaking)
}

func TestAbandonPendingIsGuardedByChannel(t *testing.T) {
	store := newVoiceStore()

	store.Call("A")
	store.AbandonPending("other")
	assert.Equal(t, PhasePending, store.VoiceStateFor("local").Phase)

	store.AbandonPending("A")
	assert.Equal(t, PhaseIdle, store.VoiceStateFor("local").Phase)
	_, pending := store.PendingChannel()
	assert.False(t, pending)
}

func TestSetVoiceStateIndependentOfCall(t *testing.T) {
	store := newVoiceStore()

	// May be set while idle
	store.SetVoiceState(true, false)
	state := store.VoiceStateFor("local")
	assert.True(t, state.Muted)
	assert.False(t, state.Deafened)
	assert.Equal(t, PhaseIdle, state.Phase)

	// Survives joining a call
	store.JoinCall("X", 100)
	state = store.VoiceStateFor("local")
	assert.True(t, state.Muted)
	assert.Equal(t, PhaseActive, state.Phase)
}

func TestRemoteVoiceStateDoesNotTouchActiveCall(t *testing.T) {
	store := newVoiceStore()
	store.JoinCall("X", 100)

	// A pushed state for the local user updates flags only
	store.UpdateRemoteVoiceState("local", VoiceState{Phase: PhaseIdle, Muted: true})

	active, ok := store.ActiveCall()
	require.True(t, ok)
	assert.Equal(t, "X", active.ChannelID)
	state := store.VoiceStateFor("local")
	assert.True(t, state.Muted)
	assert.Equal(t, PhaseActive, state.Phase)
}

func TestRemoteVoiceStateLastWriteWins(t *testing.T) {
	store := newVoiceStore()

	store.UpdateRemoteVoiceState("r1", VoiceState{Phase: PhasePending, Muted: true})
	store.UpdateRemoteVoiceState("r1", VoiceState{Phase: PhaseActive, Deafened: true})

	state := store.VoiceStateFor("r1")
	assert.Equal(t, PhaseActive, state.Phase)
	assert.True(t, state.Deafened)
	assert.False(t, state.Muted)
}

func TestActivationForUnknownUserCreatesIdleEntry(t *testing.T) {
	store := newVoiceStore()

	store.UpdateActivation("stranger", true)

	state := store.VoiceStateFor("stranger")
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.True(t, state.Speaking)
}

func TestParticipantsIncludePendingPeers(t *testing.T) {
	store := newVoiceStore()

	store.JoinCall("X", 100)
	store.UpdateRemoteVoiceState("r-active", VoiceState{Phase: PhaseActive})
	store.UpdateRemoteVoiceState("r-pending", VoiceState{Phase: PhasePending})
	store.UpdateRemoteVoiceState("r-idle", VoiceState{Phase: PhaseIdle})

	assert.Equal(t, []string{"local", "r-active", "r-pending"}, store.Participants())
}

func TestParticipantsEmptyWhenNotInCall(t *testing.T) {
	store := newVoiceStore()
	store.UpdateRemoteVoiceState("r1", VoiceState{Phase: PhaseActive})
	assert.Nil(t, store.Participants())
}

func TestIncomingCalls(t *testing.T) {
	store := newVoiceStore()

	store.AddIncomingCall("ch1")
	store.AddIncomingCall("ch2")
	assert.Equal(t, []string{"ch1", "ch2"}, store.IncomingCalls())

	store.RemoveIncomingCall("ch1")
	assert.Equal(t, []string{"ch2"}, store.IncomingCalls())

	// Joining clears the ring for that channel
	store.AddIncomingCall("ch3")
	store.JoinCall("ch3", 100)
	assert.Equal(t, []string{"ch2"}, store.IncomingCalls())
}

func TestVoiceReset(t *testing.T) {
	store := newVoiceStore()
	store.JoinCall("X", 100)
	store.UpdateRemoteVoiceState("r1", VoiceState{Phase: PhaseActive})
	store.AddIncomingCall("ch1")

	store.Reset()

	_, inCall := store.ActiveCall()
	assert.False(t, inCall)
	assert.Empty(t, store.IncomingCalls())
	assert.Equal(t, VoiceState{}, store.VoiceStateFor("r1"))
}
