package client

import (
	"sync"
)

// MockBackend is a test implementation of BackendClient. It records
// every call for verification, returns configurable errors, and lets
// tests simulate push events and transport failures.
type MockBackend struct {
	mu sync.RWMutex

	connected     bool
	authenticated bool

	// Configurable outcomes
	connectErr error
	resumeErr  error
	loginErr   error
	registerErr error
	logoutErr  error
	callErr    error
	joinErr    error

	user         User
	sessionToken string
	fetched      map[string][]Message
	resumeHook   func()

	// Recorded calls
	ConnectAttempts int
	ConnectAddrs    []string
	ResumedTokens   []string
	Logins          [][2]string
	SentMessages    []Message
	FriendCalls     []string
	VoiceCalls      []string

	events chan Action
	errors chan error
}

// NewMockBackend creates a mock backend
func NewMockBackend() *MockBackend {
	return &MockBackend{
		fetched: make(map[string][]Message),
		events:  make(chan Action, 100),
		errors:  make(chan error, 10),
	}
}

// Connect simulates a transport connection attempt
func (m *MockBackend) Connect(addr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ConnectAttempts++
	m.ConnectAddrs = append(m.ConnectAddrs, addr)

	if m.connectErr != nil {
		return m.connectErr
	}

	m.connected = true
	return nil
}

// Disconnect simulates closing the transport
func (m *MockBackend) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.authenticated = false
}

// Close shuts the mock down
func (m *MockBackend) Close() {
	m.Disconnect()
}

// Authenticated reports the simulated identity state
func (m *MockBackend) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authenticated
}

// ResumeSession simulates session resumption. Any configured hook runs
// between the call being recorded and the outcome, so tests can hold a
// resume in flight.
func (m *MockBackend) ResumeSession(token string) (User, error) {
	m.mu.Lock()
	m.ResumedTokens = append(m.ResumedTokens, token)
	hook := m.resumeHook
	m.mu.Unlock()

	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resumeErr != nil {
		return User{}, m.resumeErr
	}

	m.authenticated = true
	return m.user, nil
}

// Login simulates credential login
func (m *MockBackend) Login(email, password string) (User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Logins = append(m.Logins, [2]string{email, password})

	if m.loginErr != nil {
		return User{}, "", m.loginErr
	}

	m.authenticated = true
	return m.user, m.sessionToken, nil
}

// Register simulates account registration
func (m *MockBackend) Register(username, email, password string) (User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registerErr != nil {
		return User{}, "", m.registerErr
	}

	m.authenticated = true
	return m.user, m.sessionToken, nil
}

// Logout simulates session teardown
func (m *MockBackend) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.logoutErr != nil {
		return m.logoutErr
	}

	m.authenticated = false
	return nil
}

// FetchMessages returns the configured page for a channel
func (m *MockBackend) FetchMessages(channelID string, amount, offset int) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fetched[channelID], nil
}

// SendMessage echoes the message back as stored
func (m *MockBackend) SendMessage(channelID, content, attachmentID string) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := Message{
		ID:           "mock-msg",
		SenderID:     m.user.ID,
		Content:      content,
		AttachmentID: attachmentID,
	}
	m.SentMessages = append(m.SentMessages, msg)
	return msg, nil
}

// SendFriendRequest records the call
func (m *MockBackend) SendFriendRequest(friendID string) (FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FriendCalls = append(m.FriendCalls, "send:"+friendID)
	return FriendRequest{FriendID: friendID, Direction: RequestSent}, nil
}

// ApproveFriendRequest records the call
func (m *MockBackend) ApproveFriendRequest(friendID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FriendCalls = append(m.FriendCalls, "approve:"+friendID)
	return nil
}

// RejectFriendRequest records the call
func (m *MockBackend) RejectFriendRequest(friendID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FriendCalls = append(m.FriendCalls, "reject:"+friendID)
	return nil
}

// RemoveFriend records the call
func (m *MockBackend) RemoveFriend(friendID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FriendCalls = append(m.FriendCalls, "remove:"+friendID)
	return nil
}

// Call records the call
func (m *MockBackend) Call(channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.callErr != nil {
		return m.callErr
	}
	m.VoiceCalls = append(m.VoiceCalls, "call:"+channelID)
	return nil
}

// JoinCall records the call
func (m *MockBackend) JoinCall(channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.joinErr != nil {
		return m.joinErr
	}
	m.VoiceCalls = append(m.VoiceCalls, "join:"+channelID)
	return nil
}

// LeaveCall records the call
func (m *MockBackend) LeaveCall() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VoiceCalls = append(m.VoiceCalls, "leave")
	return nil
}

// SetVoiceState records the call
func (m *MockBackend) SetVoiceState(muted, deafened bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VoiceCalls = append(m.VoiceCalls, "voicestate")
	return nil
}

// GetChannelCalls returns no calls
func (m *MockBackend) GetChannelCalls(channelID string, amount, offset int) ([]string, error) {
	return nil, nil
}

// Events returns the push event channel
func (m *MockBackend) Events() <-chan Action {
	return m.events
}

// Errors returns the transport error channel
func (m *MockBackend) Errors() <-chan error {
	return m.errors
}

// Test helpers

// SetConnectError sets an error to return from Connect()
func (m *MockBackend) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

// SetResumeError sets an error to return from ResumeSession()
func (m *MockBackend) SetResumeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumeErr = err
}

// SetResumeHook sets a function ResumeSession calls while in flight
func (m *MockBackend) SetResumeHook(hook func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumeHook = hook
}

// SetLoginError sets an error to return from Login()
func (m *MockBackend) SetLoginError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginErr = err
}

// SetRegisterError sets an error to return from Register()
func (m *MockBackend) SetRegisterError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerErr = err
}

// SetLogoutError sets an error to return from Logout()
func (m *MockBackend) SetLogoutError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutErr = err
}

// SetCallError sets an error to return from Call()
func (m *MockBackend) SetCallError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callErr = err
}

// SetJoinError sets an error to return from JoinCall()
func (m *MockBackend) SetJoinError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joinErr = err
}

// SetAuthenticated sets the simulated identity state
func (m *MockBackend) SetAuthenticated(authenticated bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authenticated = authenticated
}

// SetUser sets the user returned from auth operations
func (m *MockBackend) SetUser(user User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
}

// SetSessionToken sets the token returned from login/register
func (m *MockBackend) SetSessionToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionToken = token
}

// SetFetchedMessages sets the page FetchMessages returns for a channel
func (m *MockBackend) SetFetchedMessages(channelID string, msgs []Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched[channelID] = msgs
}

// SimulatePushEvent delivers a push event action
func (m *MockBackend) SimulatePushEvent(action Action) {
	m.events <- action
}

// SimulateTransportError delivers a transport error
func (m *MockBackend) SimulateTransportError(err error) {
	m.errors <- err
}

// GetConnectAttempts returns the number of Connect() calls
func (m *MockBackend) GetConnectAttempts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConnectAttempts
}
