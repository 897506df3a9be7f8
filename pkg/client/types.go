package client

import "fmt"

// ConnectionState is the lifecycle state of the backend connection
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateAuthenticating
	StateReady
	StateReconnecting
	StateLoggingOut
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateReconnecting:
		return "reconnecting"
	case StateLoggingOut:
		return "logging_out"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// AuthError is an authentication rejection code from the server
type AuthError int

const (
	AuthErrInvalidCredentials AuthError = 1001
	AuthErrSessionExpired     AuthError = 1002
	AuthErrUserExists         AuthError = 1003
	AuthErrEmailExists        AuthError = 1004
)

func (e AuthError) Error() string {
	switch e {
	case AuthErrInvalidCredentials:
		return "invalid credentials"
	case AuthErrSessionExpired:
		return "session expired"
	case AuthErrUserExists:
		return "username already taken"
	case AuthErrEmailExists:
		return "email already registered"
	default:
		return fmt.Sprintf("authentication error %d", int(e))
	}
}

// Session is an authenticated session
type Session struct {
	Token  string
	UserID string
}

// User is the authenticated user's identity as returned by the server
type User struct {
	ID             string
	Username       string
	Email          string
	Friends        []string
	FriendRequests []FriendRequest
}

// Message is a chat message in a channel. SentAt is unix milliseconds
// as assigned by the server.
type Message struct {
	ID           string
	SenderID     string
	Content      string
	AttachmentID string
	SentAt       int64
}

// Draft is an unsent message under composition for a channel
type Draft struct {
	Content      string
	AttachmentID string
}

// RequestDirection says which side initiated a friend request
type RequestDirection int

const (
	RequestSent RequestDirection = iota
	RequestReceived
)

func (d RequestDirection) String() string {
	if d == RequestSent {
		return "sent"
	}
	return "received"
}

// FriendRequest is a pending friend request in either direction
type FriendRequest struct {
	FriendID  string
	Direction RequestDirection
	SentAt    int64
}

// VoicePhase is a user's call membership phase
type VoicePhase int

const (
	PhaseIdle VoicePhase = iota
	PhasePending
	PhaseActive
)

func (p VoicePhase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseActive:
		return "active"
	default:
		return "idle"
	}
}

// VoiceState is a user's voice presence: call phase plus the mute,
// deafen and speaking flags
type VoiceState struct {
	Phase    VoicePhase
	Muted    bool
	Deafened bool
	Speaking bool
}

// ActiveCall is the local user's current call, at most one at a time
type ActiveCall struct {
	ChannelID string
	JoinedAt  int64
}
