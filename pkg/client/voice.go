package client

import (
	"sort"
	"sync"
)

// VoicePresenceStore tracks per-user voice state, the local user's
// single active call, and channels with calls ringing in. Push events
// from the server are applied last-write-wins and never fault: an
// update for an unknown user creates an idle entry, a duplicate join
// is a no-op.
type VoicePresenceStore struct {
	mu          sync.RWMutex
	localUserID string
	states      map[string]VoiceState
	active      *ActiveCall

	// pendingChannel is the channel an outbound call or join intent
	// targets. Fulfillment actions check it so a stale join cannot
	// resurrect a call the user already left.
	pendingChannel string

	incoming map[string]struct{}
}

// NewVoicePresenceStore creates an empty voice presence store
func NewVoicePresenceStore() *VoicePresenceStore {
	return &VoicePresenceStore{
		states:   make(map[string]VoiceState),
		incoming: make(map[string]struct{}),
	}
}

// SetLocalUser records which user ID is the local one
func (s *VoicePresenceStore) SetLocalUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localUserID = userID
}

// Call marks an outbound call to a channel: local phase becomes
// pending until the call is joined or abandoned
func (s *VoicePresenceStore) Call(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingChannel = channelID
	state := s.states[s.localUserID]
	state.Phase = PhasePending
	s.states[s.localUserID] = state
}

// JoinCall establishes call membership, with transfer semantics: any
// prior active call is fully cleared first, so the local user is a
// member of at most one call at any time. Joining the current call's
// channel again is a no-op.
func (s *VoicePresenceStore) JoinCall(channelID string, joinedAt int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		if s.active.ChannelID == channelID {
			s.pendingChannel = ""
			return
		}
		s.clearCallLocked()
	}

	s.active = &ActiveCall{ChannelID: channelID, JoinedAt: joinedAt}
	s.pendingChannel = ""
	delete(s.incoming, channelID)

	state := s.states[s.localUserID]
	state.Phase = PhaseActive
	s.states[s.localUserID] = state
}

// LeaveCall clears the active call and any pending intent, resetting
// the local phase to idle
func (s *VoicePresenceStore) LeaveCall() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCallLocked()
	s.pendingChannel = ""
}

func (s *VoicePresenceStore) clearCallLocked() {
	s.active = nil
	state := s.states[s.localUserID]
	state.Phase = PhaseIdle
	state.Speaking = false
	s.states[s.localUserID] = state
}

// AbandonPending resets the local phase to idle if an outbound call to
// channelID is still pending. Applied when the backend rejects the
// call; a rejection arriving after the user moved on is discarded.
func (s *VoicePresenceStore) AbandonPending(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingChannel != channelID {
		return
	}
	s.pendingChannel = ""
	if s.active == nil {
		state := s.states[s.localUserID]
		state.Phase = PhaseIdle
		s.states[s.localUserID] = state
	}
}

// PendingChannel returns the channel of the outstanding call/join
// intent, if any
func (s *VoicePresenceStore) PendingChannel() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingChannel, s.pendingChannel != ""
}

// SetVoiceState updates the local user's mute/deafen flags,
// independent of call membership
func (s *VoicePresenceStore) SetVoiceState(muted, deafened bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[s.localUserID]
	state.Muted = muted
	state.Deafened = deafened
	s.states[s.localUserID] = state
}

// UpdateRemoteVoiceState applies a pushed voice state. It replaces the
// stored entry last-write-wins; for the local user only the flags are
// taken so a stale or malformed event cannot touch the active call.
func (s *VoicePresenceStore) UpdateRemoteVoiceState(userID string, vs VoiceState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == s.localUserID {
		state := s.states[userID]
		state.Muted = vs.Muted
		state.Deafened = vs.Deafened
		state.Speaking = vs.Speaking
		s.states[userID] = state
		return
	}

	s.states[userID] = vs
}

// UpdateActivation applies the "currently producing audio" signal. An
// unknown user gets an idle entry so later events have a consistent
// base to land on.
func (s *VoicePresenceStore) UpdateActivation(userID string, speaking bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[userID]
	state.Speaking = speaking
	s.states[userID] = state
}

// AddIncomingCall records a channel with a call ringing in
func (s *VoicePresenceStore) AddIncomingCall(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incoming[channelID] = struct{}{}
}

// RemoveIncomingCall removes a ringing call, typically when it ends
func (s *VoicePresenceStore) RemoveIncomingCall(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.incoming, channelID)
}

// IncomingCalls returns the channels with calls ringing in, sorted
func (s *VoicePresenceStore) IncomingCalls() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.incoming))
	for id := range s.incoming {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ActiveCall returns a copy of the local user's active call, if any
func (s *VoicePresenceStore) ActiveCall() (ActiveCall, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return ActiveCall{}, false
	}
	return *s.active, true
}

// VoiceStateFor returns the stored voice state for a user. An unknown
// user reads as idle.
func (s *VoicePresenceStore) VoiceStateFor(userID string) VoiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[userID]
}

// Participants returns the membership of the current call: the local
// user plus every remote user whose phase is pending or active. A
// ringing peer counts as a participant before its media path is up.
// Returns nil when the local user is not in a call.
func (s *VoicePresenceStore) Participants() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == nil {
		return nil
	}

	out := []string{s.localUserID}
	for id, state := range s.states {
		if id == s.localUserID {
			continue
		}
		if state.Phase == PhasePending || state.Phase == PhaseActive {
			out = append(out, id)
		}
	}
	sort.Strings(out[1:])
	return out
}

// Reset drops all voice state. Invoked on logout and connection loss.
func (s *VoicePresenceStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]VoiceState)
	s.incoming = make(map[string]struct{})
	s.active = nil
	s.pendingChannel = ""
}
