// Package backendws implements the runtime's backend capability over a
// websocket carrying JSON envelopes. Requests are correlated to
// responses by ID; frames without an ID are server push events and are
// translated into dispatcher actions.
package backendws

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voclink/voclink/pkg/client"
)

// DefaultCallTimeout bounds how long a request waits for its response
const DefaultCallTimeout = 10 * time.Second

// Client is a websocket-backed implementation of client.BackendClient
type Client struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	connGen   uint64 // bumped per connection so stale pumps exit quietly

	authenticated atomic.Bool
	nextID        atomic.Uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan envelope

	events  chan client.Action
	errors  chan error
	timeout time.Duration

	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup

	logger *log.Logger
}

// New creates a websocket backend client
func New() *Client {
	return &Client{
		pending:  make(map[uint64]chan envelope),
		events:   make(chan client.Action, 100),
		errors:   make(chan error, 10),
		timeout:  DefaultCallTimeout,
		shutdown: make(chan struct{}),
	}
}

// SetLogger sets a logger for debugging wire traffic
func (c *Client) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// SetCallTimeout overrides the per-request response timeout
func (c *Client) SetCallTimeout(timeout time.Duration) {
	c.timeout = timeout
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// Connect dials the server and starts the read pump
func (c *Client) Connect(addr string) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return fmt.Errorf("already connected")
	}
	c.mu.Unlock()

	url := fmt.Sprintf("ws://%s/ws", addr)
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.connGen++
	gen := c.connGen
	c.mu.Unlock()

	c.logf("connected to %s", url)

	c.wg.Add(1)
	go c.readLoop(conn, gen)

	return nil
}

// Disconnect closes the transport. Pending requests fail.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.authenticated.Store(false)
	if conn != nil {
		conn.Close()
	}
	c.failPending(fmt.Errorf("connection closed"))
}

// Close shuts the client down permanently
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.shutdown)
	})
	c.Disconnect()
	c.wg.Wait()
}

// Authenticated reports whether this connection holds an identity
func (c *Client) Authenticated() bool {
	return c.authenticated.Load()
}

// Events returns push events translated into dispatcher actions
func (c *Client) Events() <-chan client.Action {
	return c.events
}

// Errors returns the transport error channel
func (c *Client) Errors() <-chan error {
	return c.errors
}

// readLoop receives envelopes: responses are routed to their waiting
// request, everything else is a push event
func (c *Client) readLoop(conn *websocket.Conn, gen uint64) {
	defer c.wg.Done()

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.handleReadFailure(conn, gen, err)
			return
		}

		if env.ID != 0 {
			c.pendingMu.Lock()
			ch, ok := c.pending[env.ID]
			delete(c.pending, env.ID)
			c.pendingMu.Unlock()

			if ok {
				ch <- env
			} else {
				c.logf("dropping response for unknown request %d", env.ID)
			}
			continue
		}

		if action := c.decodePush(env); action != nil {
			select {
			case c.events <- action:
			case <-c.shutdown:
				return
			}
		}
	}
}

// handleReadFailure tears the connection down and surfaces the loss,
// unless a newer connection already replaced this one
func (c *Client) handleReadFailure(conn *websocket.Conn, gen uint64, err error) {
	c.mu.Lock()
	stale := gen != c.connGen || !c.connected
	if !stale {
		c.connected = false
		c.conn = nil
	}
	c.mu.Unlock()

	conn.Close()
	if stale {
		return
	}

	c.authenticated.Store(false)
	c.failPending(fmt.Errorf("connection lost: %w", err))
	c.logf("read failed: %v", err)

	select {
	case c.errors <- fmt.Errorf("connection lost: %w", err):
	default:
	}
}

// failPending rejects every outstanding request
func (c *Client) failPending(err error) {
	c.pendingMu.Lock()
	pending := c.pending
	c.pending = make(map[uint64]chan envelope)
	c.pendingMu.Unlock()

	for id, ch := range pending {
		select {
		case ch <- envelope{ID: id, Error: -1}:
		default:
		}
	}
	if len(pending) > 0 {
		c.logf("failed %d pending request(s): %v", len(pending), err)
	}
}

// request sends an envelope and waits for the correlated response
func (c *Client) request(msgType string, payload interface{}) (json.RawMessage, error) {
	var body json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", msgType, err)
		}
		body = encoded
	}

	id := c.nextID.Add(1)
	ch := make(chan envelope, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	cleanup := func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}

	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	if connected {
		// gorilla/websocket permits one concurrent writer; the
		// connection mutex serializes them
		if err := conn.WriteJSON(envelope{ID: id, Type: msgType, Payload: body}); err != nil {
			c.mu.Unlock()
			cleanup()
			return nil, fmt.Errorf("write %s request: %w", msgType, err)
		}
	}
	c.mu.Unlock()

	if !connected {
		cleanup()
		return nil, fmt.Errorf("not connected")
	}

	select {
	case env := <-ch:
		if env.Error != 0 {
			if env.Error > 0 {
				return nil, client.AuthError(env.Error)
			}
			return nil, fmt.Errorf("%s request failed", msgType)
		}
		return env.Payload, nil
	case <-time.After(c.timeout):
		cleanup()
		return nil, fmt.Errorf("%s request timed out", msgType)
	case <-c.shutdown:
		cleanup()
		return nil, fmt.Errorf("client closed")
	}
}

// decodePush translates a server push envelope into an action. A
// malformed payload is logged and dropped; the event stream must never
// fault the runtime.
func (c *Client) decodePush(env envelope) client.Action {
	switch env.Type {
	case pushMessage:
		var msg wireMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			c.logf("dropping malformed message push: %v", err)
			return nil
		}
		return client.MessageAppended{ChannelID: msg.ChannelID, Message: msg.toMessage()}

	case pushFriendRequest:
		var req wireFriendRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			c.logf("dropping malformed friend request push: %v", err)
			return nil
		}
		return client.FriendRequestReceived{Request: req.toRequest()}

	case pushFriendApproved:
		var req wireFriendRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			c.logf("dropping malformed friend approval push: %v", err)
			return nil
		}
		return client.FriendRequestApproved{FriendID: req.FriendID}

	case pushFriendRejected:
		var req wireFriendRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			c.logf("dropping malformed friend rejection push: %v", err)
			return nil
		}
		return client.FriendRequestRejected{FriendID: req.FriendID}

	case pushFriendRemoved:
		var req wireFriendRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			c.logf("dropping malformed friend removal push: %v", err)
			return nil
		}
		return client.FriendRemoved{FriendID: req.FriendID}

	case pushVoiceState:
		var vs wireVoiceState
		if err := json.Unmarshal(env.Payload, &vs); err != nil {
			c.logf("dropping malformed voice state push: %v", err)
			return nil
		}
		return client.RemoteVoiceStateUpdated{UserID: vs.UserID, State: vs.toVoiceState()}

	case pushVoiceActivation:
		var payload struct {
			UserID    string `json:"userId"`
			Activated bool   `json:"activated"`
		}
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			c.logf("dropping malformed activation push: %v", err)
			return nil
		}
		return client.ActivationUpdated{UserID: payload.UserID, Speaking: payload.Activated}

	case pushIncomingCall:
		var payload struct {
			ChannelID string `json:"channelId"`
		}
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			c.logf("dropping malformed incoming call push: %v", err)
			return nil
		}
		return client.IncomingCall{ChannelID: payload.ChannelID}

	case pushCallEnded:
		var payload struct {
			ChannelID string `json:"channelId"`
		}
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			c.logf("dropping malformed call ended push: %v", err)
			return nil
		}
		return client.CallEnded{ChannelID: payload.ChannelID}

	default:
		c.logf("dropping unknown push type %q", env.Type)
		return nil
	}
}

// ResumeSession authenticates with a persisted session token
func (c *Client) ResumeSession(token string) (client.User, error) {
	payload, err := c.request(typeSessionAuth, map[string]string{"sessionToken": token})
	if err != nil {
		return client.User{}, err
	}

	var auth authPayload
	if err := json.Unmarshal(payload, &auth); err != nil {
		return client.User{}, fmt.Errorf("decode session auth response: %w", err)
	}

	c.authenticated.Store(true)
	return auth.User.toUser(), nil
}

// Login authenticates with explicit credentials
func (c *Client) Login(email, password string) (client.User, string, error) {
	payload, err := c.request(typeLogin, map[string]string{"email": email, "password": password})
	if err != nil {
		return client.User{}, "", err
	}

	var auth authPayload
	if err := json.Unmarshal(payload, &auth); err != nil {
		return client.User{}, "", fmt.Errorf("decode login response: %w", err)
	}

	c.authenticated.Store(true)
	return auth.User.toUser(), auth.SessionToken, nil
}

// Register creates an account and authenticates
func (c *Client) Register(username, email, password string) (client.User, string, error) {
	payload, err := c.request(typeRegister, map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return client.User{}, "", err
	}

	var auth authPayload
	if err := json.Unmarshal(payload, &auth); err != nil {
		return client.User{}, "", fmt.Errorf("decode register response: %w", err)
	}

	c.authenticated.Store(true)
	return auth.User.toUser(), auth.SessionToken, nil
}

// Logout ends the session server-side
func (c *Client) Logout() error {
	_, err := c.request(typeLogout, nil)
	c.authenticated.Store(false)
	return err
}

// FetchMessages loads a page of a channel's history
func (c *Client) FetchMessages(channelID string, amount, offset int) ([]client.Message, error) {
	payload, err := c.request(typeGetChannelMessages, map[string]interface{}{
		"channelId": channelID,
		"amount":    amount,
		"offset":    offset,
	})
	if err != nil {
		return nil, err
	}

	var response struct {
		Messages []wireMessage `json:"messages"`
	}
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("decode messages response: %w", err)
	}

	msgs := make([]client.Message, 0, len(response.Messages))
	for _, msg := range response.Messages {
		msgs = append(msgs, msg.toMessage())
	}
	return msgs, nil
}

// SendMessage sends a message and returns the stored copy
func (c *Client) SendMessage(channelID, content, attachmentID string) (client.Message, error) {
	payload, err := c.request(typeSendMessage, map[string]string{
		"channelId":    channelID,
		"content":      content,
		"attachmentId": attachmentID,
	})
	if err != nil {
		return client.Message{}, err
	}

	var response struct {
		Message wireMessage `json:"message"`
	}
	if err := json.Unmarshal(payload, &response); err != nil {
		return client.Message{}, fmt.Errorf("decode send message response: %w", err)
	}

	return response.Message.toMessage(), nil
}

// SendFriendRequest sends a friend request
func (c *Client) SendFriendRequest(friendID string) (client.FriendRequest, error) {
	payload, err := c.request(typeSendFriendRequest, map[string]string{"friendId": friendID})
	if err != nil {
		return client.FriendRequest{}, err
	}

	var response struct {
		FriendRequest wireFriendRequest `json:"friendRequest"`
	}
	if err := json.Unmarshal(payload, &response); err != nil {
		return client.FriendRequest{}, fmt.Errorf("decode friend request response: %w", err)
	}

	return response.FriendRequest.toRequest(), nil
}

// ApproveFriendRequest approves a pending request
func (c *Client) ApproveFriendRequest(friendID string) error {
	_, err := c.request(typeApproveFriendReq, map[string]string{"friendId": friendID})
	return err
}

// RejectFriendRequest rejects a pending request
func (c *Client) RejectFriendRequest(friendID string) error {
	_, err := c.request(typeRejectFriendReq, map[string]string{"friendId": friendID})
	return err
}

// RemoveFriend removes a friend
func (c *Client) RemoveFriend(friendID string) error {
	_, err := c.request(typeRemoveFriend, map[string]string{"friendId": friendID})
	return err
}

// Call starts an outbound call
func (c *Client) Call(channelID string) error {
	_, err := c.request(typeCall, map[string]string{"channelId": channelID})
	return err
}

// JoinCall joins the call in a channel
func (c *Client) JoinCall(channelID string) error {
	_, err := c.request(typeJoinCall, map[string]string{"channelId": channelID})
	return err
}

// LeaveCall leaves the current call
func (c *Client) LeaveCall() error {
	_, err := c.request(typeLeaveCall, nil)
	return err
}

// SetVoiceState publishes the local mute/deafen flags
func (c *Client) SetVoiceState(muted, deafened bool) error {
	_, err := c.request(typeSetVoiceState, map[string]bool{"muted": muted, "deafen": deafened})
	return err
}

// GetChannelCalls queries a page of a channel's calls
func (c *Client) GetChannelCalls(channelID string, amount, offset int) ([]string, error) {
	payload, err := c.request(typeGetChannelCalls, map[string]interface{}{
		"channelId": channelID,
		"amount":    amount,
		"offset":    offset,
	})
	if err != nil {
		return nil, err
	}

	var response struct {
		Calls []string `json:"calls"`
	}
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("decode channel calls response: %w", err)
	}
	return response.Calls, nil
}
