package client

// BackendClient defines the capability surface the runtime needs from
// the server. The wire protocol behind it is not the runtime's
// concern; pkg/backendws provides the production implementation and
// MockBackend the test one.
type BackendClient interface {
	// Connection management
	Connect(addr string) error
	Disconnect()
	Close()

	// Authenticated reports whether the backend already holds an
	// authenticated identity for this connection (no round trip).
	Authenticated() bool

	// Authentication
	ResumeSession(token string) (User, error)
	Login(email, password string) (User, string, error)
	Register(username, email, password string) (User, string, error)
	Logout() error

	// Messages
	FetchMessages(channelID string, amount, offset int) ([]Message, error)
	SendMessage(channelID, content, attachmentID string) (Message, error)

	// Friends
	SendFriendRequest(friendID string) (FriendRequest, error)
	ApproveFriendRequest(friendID string) error
	RejectFriendRequest(friendID string) error
	RemoveFriend(friendID string) error

	// Voice
	Call(channelID string) error
	JoinCall(channelID string) error
	LeaveCall() error
	SetVoiceState(muted, deafened bool) error
	GetChannelCalls(channelID string, amount, offset int) ([]string, error)

	// Push events, already translated into dispatcher actions
	Events() <-chan Action

	// Transport errors; a receive here means the connection is gone
	Errors() <-chan error
}

// TokenStore is the durable local storage capability: a string
// key/value store that survives restarts. The runtime uses exactly one
// key for the session token (plus one convenience key for the last
// used email). An absent key reads as the empty string.
type TokenStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}
