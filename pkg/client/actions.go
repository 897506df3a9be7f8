package client

// Action is a discrete unit of state mutation. UI-originated intents,
// async fulfillments and server push events all arrive as actions; the
// Dispatcher applies each one to completion before the next.
type Action interface {
	// ActionType names the action for logging and metrics
	ActionType() string
}

// MessageAppended stores one message (local send fulfillment or push)
type MessageAppended struct {
	ChannelID string
	Message   Message
}

func (MessageAppended) ActionType() string { return "message_appended" }

// MessageBatchFetched merges a fetched page of history
type MessageBatchFetched struct {
	ChannelID string
	Messages  []Message
}

func (MessageBatchFetched) ActionType() string { return "message_batch_fetched" }

// DraftContentSet updates a channel draft's text
type DraftContentSet struct {
	ChannelID string
	Content   string
}

func (DraftContentSet) ActionType() string { return "draft_content_set" }

// DraftAttachmentSet updates a channel draft's attachment
type DraftAttachmentSet struct {
	ChannelID    string
	AttachmentID string
}

func (DraftAttachmentSet) ActionType() string { return "draft_attachment_set" }

// FriendRequestSent records an outbound request the backend accepted
type FriendRequestSent struct {
	Request FriendRequest
}

func (FriendRequestSent) ActionType() string { return "friend_request_sent" }

// FriendRequestReceived records an inbound request from a push event
type FriendRequestReceived struct {
	Request FriendRequest
}

func (FriendRequestReceived) ActionType() string { return "friend_request_received" }

// FriendRequestApproved moves a pending request into the friends list
type FriendRequestApproved struct {
	FriendID string
}

func (FriendRequestApproved) ActionType() string { return "friend_request_approved" }

// FriendRequestRejected drops a pending request
type FriendRequestRejected struct {
	FriendID string
}

func (FriendRequestRejected) ActionType() string { return "friend_request_rejected" }

// FriendRemoved drops a friendship
type FriendRemoved struct {
	FriendID string
}

func (FriendRemoved) ActionType() string { return "friend_removed" }

// CallStarted marks an outbound call as pending
type CallStarted struct {
	ChannelID string
}

func (CallStarted) ActionType() string { return "call_started" }

// CallJoined establishes call membership (transfer semantics). Guarded
// against stale fulfillment: discarded unless the join is still wanted.
type CallJoined struct {
	ChannelID string
	JoinedAt  int64
}

func (CallJoined) ActionType() string { return "call_joined" }

// CallRejected is the failure continuation of an outbound call/join
type CallRejected struct {
	ChannelID string
}

func (CallRejected) ActionType() string { return "call_rejected" }

// CallLeft clears the active call
type CallLeft struct{}

func (CallLeft) ActionType() string { return "call_left" }

// LocalVoiceStateSet updates the local user's mute/deafen flags
type LocalVoiceStateSet struct {
	Muted    bool
	Deafened bool
}

func (LocalVoiceStateSet) ActionType() string { return "local_voice_state_set" }

// RemoteVoiceStateUpdated applies a pushed voice state change
type RemoteVoiceStateUpdated struct {
	UserID string
	State  VoiceState
}

func (RemoteVoiceStateUpdated) ActionType() string { return "remote_voice_state_updated" }

// ActivationUpdated applies a pushed speaking signal
type ActivationUpdated struct {
	UserID   string
	Speaking bool
}

func (ActivationUpdated) ActionType() string { return "activation_updated" }

// IncomingCall marks a channel with a call ringing in
type IncomingCall struct {
	ChannelID string
}

func (IncomingCall) ActionType() string { return "incoming_call" }

// CallEnded removes a ringing call
type CallEnded struct {
	ChannelID string
}

func (CallEnded) ActionType() string { return "call_ended" }

// UserSet seeds identity-derived state after login/register/resume
type UserSet struct {
	User User
}

func (UserSet) ActionType() string { return "user_set" }

// ConnectionLost resets all volatile stores; the session token is
// retained so the next connection can resume
type ConnectionLost struct{}

func (ConnectionLost) ActionType() string { return "connection_lost" }

// LoggedOut resets all stores including the session credential
type LoggedOut struct{}

func (LoggedOut) ActionType() string { return "logged_out" }
