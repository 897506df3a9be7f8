package client

import (
	"log"
	"sync"
	"time"
)

// Dispatcher is the single serialization point: every state mutation,
// whether a local intent, an async fulfillment or a server push, goes
// through Dispatch and is applied one at a time. No store ever
// observes a partially-applied action.
type Dispatcher struct {
	mu sync.Mutex

	sessions      *SessionStore
	messages      *MessageStore
	relationships *RelationshipStore
	voice         *VoicePresenceStore

	queue    chan Action
	shutdown chan struct{}
	wg       sync.WaitGroup
	once     sync.Once

	metrics *Metrics
	logger  *log.Logger
}

// NewDispatcher creates a dispatcher over the given stores
func NewDispatcher(sessions *SessionStore, messages *MessageStore, relationships *RelationshipStore, voice *VoicePresenceStore) *Dispatcher {
	return &Dispatcher{
		sessions:      sessions,
		messages:      messages,
		relationships: relationships,
		voice:         voice,
		queue:         make(chan Action, 256),
		shutdown:      make(chan struct{}),
	}
}

// SetLogger sets a logger for debugging dispatched actions
func (d *Dispatcher) SetLogger(logger *log.Logger) {
	d.logger = logger
}

// SetMetrics attaches metrics recording
func (d *Dispatcher) SetMetrics(metrics *Metrics) {
	d.metrics = metrics
}

func (d *Dispatcher) logf(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Printf(format, args...)
	}
}

// Run starts the dispatch loop
func (d *Dispatcher) Run() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case action := <-d.queue:
				d.Apply(action)
			case <-d.shutdown:
				return
			}
		}
	}()
}

// Close stops the dispatch loop. Queued actions that were not yet
// applied are dropped.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.shutdown)
	})
	d.wg.Wait()
}

// Dispatch enqueues an action for serialized application
func (d *Dispatcher) Dispatch(action Action) {
	select {
	case d.queue <- action:
	case <-d.shutdown:
	}
}

// Apply runs one action to completion across all stores it affects.
// Exposed so tests can drive the pipeline synchronously; the dispatch
// loop uses it for every queued action.
func (d *Dispatcher) Apply(action Action) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.metrics.RecordDispatch(action.ActionType())
	d.apply(action)
}

// apply routes a single action into the stores. Push events that fall
// outside current invariants are absorbed: the consistent portion is
// applied and the rest logged, never faulted, because the server's
// event stream cannot be trusted to be ordered or well-formed.
func (d *Dispatcher) apply(action Action) {
	switch a := action.(type) {
	case MessageAppended:
		d.messages.AppendSingle(a.ChannelID, a.Message)

	case MessageBatchFetched:
		d.messages.AppendBatch(a.ChannelID, a.Messages)

	case DraftContentSet:
		d.messages.SetDraftContent(a.ChannelID, a.Content)

	case DraftAttachmentSet:
		d.messages.SetDraftAttachment(a.ChannelID, a.AttachmentID)

	case FriendRequestSent:
		if err := d.relationships.addRequest(a.Request); err != nil {
			d.logf("ignoring duplicate outbound friend request for %s: %v", a.Request.FriendID, err)
		}

	case FriendRequestReceived:
		if err := d.relationships.ReceiveRequest(a.Request); err != nil {
			d.logf("ignoring inbound friend request for %s: %v", a.Request.FriendID, err)
		}

	case FriendRequestApproved:
		if err := d.relationships.Approve(a.FriendID); err != nil {
			d.logf("ignoring friend approval for %s: %v", a.FriendID, err)
		}

	case FriendRequestRejected:
		if err := d.relationships.Reject(a.FriendID); err != nil {
			d.logf("ignoring friend rejection for %s: %v", a.FriendID, err)
		}

	case FriendRemoved:
		if err := d.relationships.RemoveFriend(a.FriendID); err != nil {
			d.logf("ignoring friend removal for %s: %v", a.FriendID, err)
		}

	case CallStarted:
		d.voice.Call(a.ChannelID)

	case CallJoined:
		// Stale-fulfillment guard: a join resolving after the user
		// already left (or moved to another channel) must not
		// resurrect the call.
		if pending, ok := d.voice.PendingChannel(); !ok || pending != a.ChannelID {
			if active, inCall := d.voice.ActiveCall(); !inCall || active.ChannelID != a.ChannelID {
				d.logf("discarding stale join fulfillment for channel %s", a.ChannelID)
				return
			}
		}
		joinedAt := a.JoinedAt
		if joinedAt == 0 {
			joinedAt = time.Now().UnixMilli()
		}
		d.voice.JoinCall(a.ChannelID, joinedAt)

	case CallRejected:
		d.voice.AbandonPending(a.ChannelID)

	case CallLeft:
		d.voice.LeaveCall()

	case LocalVoiceStateSet:
		d.voice.SetVoiceState(a.Muted, a.Deafened)

	case RemoteVoiceStateUpdated:
		d.voice.UpdateRemoteVoiceState(a.UserID, a.State)

	case ActivationUpdated:
		d.voice.UpdateActivation(a.UserID, a.Speaking)

	case IncomingCall:
		d.voice.AddIncomingCall(a.ChannelID)

	case CallEnded:
		d.voice.RemoveIncomingCall(a.ChannelID)

	case UserSet:
		d.sessions.SetUserID(a.User.ID)
		d.voice.SetLocalUser(a.User.ID)
		d.relationships.Seed(a.User.Friends, a.User.FriendRequests)

	case ConnectionLost:
		d.resetStores()

	case LoggedOut:
		d.resetStores()
		if err := d.sessions.Clear(); err != nil {
			d.logf("failed to clear session on logout: %v", err)
		}

	default:
		d.logf("unknown action %T", action)
	}
}

// resetStores returns every volatile store to its empty snapshot. The
// session credential is handled separately by the caller.
func (d *Dispatcher) resetStores() {
	d.messages.Reset()
	d.relationships.Reset()
	d.voice.Reset()
}
