package client

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// historyPageSize is the page fetched when refreshing a channel's
// history after a reconnect
const historyPageSize = 50

// Client is the top-level runtime: it owns the stores, the dispatcher
// and the connection manager, pumps backend push events and transport
// errors into them, and exposes the operations the UI layer calls.
// Operations that involve the backend block the calling goroutine
// until the fulfillment or rejection has been handled; the dispatch
// loop keeps processing other actions meanwhile.
type Client struct {
	backend BackendClient

	Sessions      *SessionStore
	Messages      *MessageStore
	Relationships *RelationshipStore
	Voice         *VoicePresenceStore

	dispatcher *Dispatcher
	manager    *ConnectionManager

	metrics *Metrics
	logger  *log.Logger

	// channels whose history was fetched; refreshed after a reconnect
	// because the reset emptied their logs
	historyMu sync.Mutex
	history   map[string]struct{}

	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// Options configures optional client collaborators
type Options struct {
	Logger     *log.Logger
	Metrics    *Metrics
	RetryDelay time.Duration
}

// New creates a client runtime over a backend and a durable store
func New(backend BackendClient, store TokenStore, opts Options) (*Client, error) {
	sessions, err := NewSessionStore(store)
	if err != nil {
		return nil, fmt.Errorf("failed to load session store: %w", err)
	}

	messages := NewMessageStore()
	relationships := NewRelationshipStore()
	voice := NewVoicePresenceStore()

	dispatcher := NewDispatcher(sessions, messages, relationships, voice)
	manager := NewConnectionManager(backend, sessions, dispatcher.Dispatch)

	if opts.Logger != nil {
		dispatcher.SetLogger(opts.Logger)
		manager.SetLogger(opts.Logger)
	}
	if opts.Metrics != nil {
		dispatcher.SetMetrics(opts.Metrics)
		manager.SetMetrics(opts.Metrics)
	}
	if opts.RetryDelay > 0 {
		manager.SetRetryDelay(opts.RetryDelay)
	}

	c := &Client{
		backend:       backend,
		Sessions:      sessions,
		Messages:      messages,
		Relationships: relationships,
		Voice:         voice,
		dispatcher:    dispatcher,
		manager:       manager,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
		history:       make(map[string]struct{}),
		shutdown:      make(chan struct{}),
	}
	manager.OnReady(c.refreshHistory)
	return c, nil
}

// refreshHistory re-fetches the first page for every channel whose
// history was loaded before; the post-reconnect reset emptied those
// logs and the server is the only source that can refill them
func (c *Client) refreshHistory(resumed bool) {
	c.historyMu.Lock()
	channels := make([]string, 0, len(c.history))
	for channelID := range c.history {
		channels = append(channels, channelID)
	}
	c.historyMu.Unlock()

	for _, channelID := range channels {
		go func(id string) {
			if err := c.FetchMessages(id, historyPageSize, 0); err != nil {
				c.logf("failed to refresh history for channel %s: %v", id, err)
			}
		}(channelID)
	}
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// Start runs the dispatch loop and the backend event/error pumps
func (c *Client) Start() {
	c.dispatcher.Run()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case action, ok := <-c.backend.Events():
				if !ok {
					return
				}
				c.metrics.RecordPushEvent()
				c.dispatcher.Dispatch(action)
			case err, ok := <-c.backend.Errors():
				if !ok {
					return
				}
				c.logf("transport error: %v", err)
				c.manager.HandleConnectionLoss()
			case <-c.shutdown:
				return
			}
		}
	}()
}

// Close tears the runtime down
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.shutdown)
	})
	c.manager.Close()
	c.wg.Wait()
	c.dispatcher.Close()
	c.backend.Close()
}

// Dispatcher exposes the serialized pipeline for observers and tests
func (c *Client) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// ConnectionManager exposes the connection lifecycle
func (c *Client) ConnectionManager() *ConnectionManager {
	return c.manager
}

// Connect starts the connection cycle
func (c *Client) Connect(addr string) {
	c.manager.Connect(addr)
}

// Login authenticates with explicit credentials
func (c *Client) Login(email, password string) error {
	return c.manager.Login(email, password)
}

// Register creates an account and authenticates
func (c *Client) Register(username, email, password string) error {
	return c.manager.Register(username, email, password)
}

// Logout tears down the session
func (c *Client) Logout() error {
	err := c.manager.Logout()
	if errors.Is(err, ErrNotReady) {
		return err
	}

	c.historyMu.Lock()
	c.history = make(map[string]struct{})
	c.historyMu.Unlock()
	return err
}

// SendMessage sends a message; on success the stored message enters
// the channel log through the dispatcher
func (c *Client) SendMessage(channelID, content, attachmentID string) (Message, error) {
	msg, err := c.backend.SendMessage(channelID, content, attachmentID)
	if err != nil {
		return Message{}, fmt.Errorf("send message: %w", err)
	}

	c.dispatcher.Dispatch(MessageAppended{ChannelID: channelID, Message: msg})
	return msg, nil
}

// FetchMessages loads a page of history into the channel log
func (c *Client) FetchMessages(channelID string, amount, offset int) error {
	msgs, err := c.backend.FetchMessages(channelID, amount, offset)
	if err != nil {
		return fmt.Errorf("fetch messages: %w", err)
	}

	c.historyMu.Lock()
	c.history[channelID] = struct{}{}
	c.historyMu.Unlock()

	c.dispatcher.Dispatch(MessageBatchFetched{ChannelID: channelID, Messages: msgs})
	return nil
}

// SetDraftContent updates the text of a channel's draft
func (c *Client) SetDraftContent(channelID, content string) {
	c.dispatcher.Dispatch(DraftContentSet{ChannelID: channelID, Content: content})
}

// SetDraftAttachment updates the attachment of a channel's draft
func (c *Client) SetDraftAttachment(channelID, attachmentID string) {
	c.dispatcher.Dispatch(DraftAttachmentSet{ChannelID: channelID, AttachmentID: attachmentID})
}

// SendFriendRequest sends a friend request. Logic errors (already
// friends, request pending) are reported without touching the backend.
func (c *Client) SendFriendRequest(friendID string) error {
	if c.Relationships.IsFriend(friendID) {
		return ErrAlreadyFriends
	}
	if c.Relationships.HasPendingRequest(friendID) {
		return ErrRequestExists
	}

	req, err := c.backend.SendFriendRequest(friendID)
	if err != nil {
		return fmt.Errorf("send friend request: %w", err)
	}

	req.Direction = RequestSent
	c.dispatcher.Dispatch(FriendRequestSent{Request: req})
	return nil
}

// ApproveFriendRequest approves a pending request
func (c *Client) ApproveFriendRequest(friendID string) error {
	if !c.Relationships.HasPendingRequest(friendID) {
		return ErrNoPendingRequest
	}

	if err := c.backend.ApproveFriendRequest(friendID); err != nil {
		return fmt.Errorf("approve friend request: %w", err)
	}

	c.dispatcher.Dispatch(FriendRequestApproved{FriendID: friendID})
	return nil
}

// RejectFriendRequest rejects a pending request
func (c *Client) RejectFriendRequest(friendID string) error {
	if !c.Relationships.HasPendingRequest(friendID) {
		return ErrNoPendingRequest
	}

	if err := c.backend.RejectFriendRequest(friendID); err != nil {
		return fmt.Errorf("reject friend request: %w", err)
	}

	c.dispatcher.Dispatch(FriendRequestRejected{FriendID: friendID})
	return nil
}

// RemoveFriend removes a friend
func (c *Client) RemoveFriend(friendID string) error {
	if !c.Relationships.IsFriend(friendID) {
		return ErrNotFriend
	}

	if err := c.backend.RemoveFriend(friendID); err != nil {
		return fmt.Errorf("remove friend: %w", err)
	}

	c.dispatcher.Dispatch(FriendRemoved{FriendID: friendID})
	return nil
}

// Call starts an outbound call to a channel
func (c *Client) Call(channelID string) error {
	c.dispatcher.Dispatch(CallStarted{ChannelID: channelID})

	if err := c.backend.Call(channelID); err != nil {
		c.dispatcher.Dispatch(CallRejected{ChannelID: channelID})
		return fmt.Errorf("call: %w", err)
	}
	return nil
}

// JoinCall joins the call in a channel, leaving any current call as a
// side effect (transfer semantics)
func (c *Client) JoinCall(channelID string) error {
	c.dispatcher.Dispatch(CallStarted{ChannelID: channelID})

	if err := c.backend.JoinCall(channelID); err != nil {
		c.dispatcher.Dispatch(CallRejected{ChannelID: channelID})
		return fmt.Errorf("join call: %w", err)
	}

	c.dispatcher.Dispatch(CallJoined{ChannelID: channelID, JoinedAt: time.Now().UnixMilli()})
	return nil
}

// LeaveCall leaves the current call
func (c *Client) LeaveCall() error {
	c.dispatcher.Dispatch(CallLeft{})

	if err := c.backend.LeaveCall(); err != nil {
		return fmt.Errorf("leave call: %w", err)
	}
	return nil
}

// SetVoiceState updates the local user's mute/deafen flags
func (c *Client) SetVoiceState(muted, deafened bool) error {
	c.dispatcher.Dispatch(LocalVoiceStateSet{Muted: muted, Deafened: deafened})

	if err := c.backend.SetVoiceState(muted, deafened); err != nil {
		return fmt.Errorf("set voice state: %w", err)
	}
	return nil
}

// GetChannelCalls queries a page of a channel's calls
func (c *Client) GetChannelCalls(channelID string, amount, offset int) ([]string, error) {
	return c.backend.GetChannelCalls(channelID, amount, offset)
}
