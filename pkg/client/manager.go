package client

import (
	"errors"
	"log"
	"sync"
	"time"
)

// ErrNotAwaitingCredentials is returned from Login/Register when the
// connection is not sitting in the awaiting-credentials state
var ErrNotAwaitingCredentials = errors.New("not awaiting credentials")

// ErrNotReady is returned from Logout when there is no ready session
var ErrNotReady = errors.New("connection is not ready")

// DefaultRetryDelay is the fixed delay between connection attempts
const DefaultRetryDelay = 3 * time.Second

// ConnectionManager drives the connection lifecycle: connect with
// unbounded fixed-delay retry, then authenticate in a fixed priority
// order (existing identity, persisted session token, explicit
// credentials), then ready. Only one connection attempt is ever in
// flight; a connection loss while ready moves to reconnecting and
// preserves loaded state until the new connection is confirmed.
type ConnectionManager struct {
	mu sync.Mutex

	backend  BackendClient
	sessions *SessionStore
	dispatch func(Action)

	state      ConnectionState
	addr       string
	retryDelay time.Duration

	// attempting guards the retry loop: a connect request while one is
	// running is a no-op against the in-progress attempt. A loss that
	// lands during that window sets retryRequested so the loop's
	// teardown relaunches it instead of leaving no goroutine retrying.
	attempting     bool
	retryRequested bool
	cancel         chan struct{}

	// pendingReset marks stale pre-drop store state that still needs a
	// reset before the next successful authentication seeds fresh data
	pendingReset bool

	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup

	onState func(ConnectionState)
	onReady func(resumed bool)

	metrics *Metrics
	logger  *log.Logger
}

// NewConnectionManager creates a connection manager. dispatch feeds
// actions into the serialized pipeline.
func NewConnectionManager(backend BackendClient, sessions *SessionStore, dispatch func(Action)) *ConnectionManager {
	return &ConnectionManager{
		backend:    backend,
		sessions:   sessions,
		dispatch:   dispatch,
		state:      StateDisconnected,
		retryDelay: DefaultRetryDelay,
		shutdown:   make(chan struct{}),
	}
}

// SetLogger sets a logger for debugging lifecycle events
func (m *ConnectionManager) SetLogger(logger *log.Logger) {
	m.logger = logger
}

// SetMetrics attaches metrics recording
func (m *ConnectionManager) SetMetrics(metrics *Metrics) {
	m.metrics = metrics
}

// SetRetryDelay overrides the fixed delay between connection attempts
func (m *ConnectionManager) SetRetryDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryDelay = delay
}

// OnStateChange registers a callback for connection state transitions
func (m *ConnectionManager) OnStateChange(fn func(ConnectionState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onState = fn
}

// OnReady registers a callback invoked when the connection reaches
// ready, for triggering a fresh data sync
func (m *ConnectionManager) OnReady(fn func(resumed bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReady = fn
}

func (m *ConnectionManager) logf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}

// State returns the current connection state
func (m *ConnectionManager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *ConnectionManager) setState(state ConnectionState) {
	m.mu.Lock()
	m.state = state
	onState := m.onState
	m.mu.Unlock()

	m.metrics.RecordConnectionState(state)
	m.logf("connection state: %s", state)
	if onState != nil {
		onState(state)
	}
}

// Connect starts the connection cycle to addr. A no-op while an
// attempt is already in flight or a session is already established.
func (m *ConnectionManager) Connect(addr string) {
	m.mu.Lock()
	if m.attempting {
		// A reconnect request can land while the previous loop is still
		// tearing down; remember it so the teardown relaunches the loop
		if m.state == StateReconnecting {
			m.addr = addr
			m.retryRequested = true
		}
		m.mu.Unlock()
		return
	}
	if m.state == StateReady || m.state == StateAuthenticating || m.state == StateLoggingOut {
		m.mu.Unlock()
		return
	}

	m.addr = addr
	m.attempting = true
	reconnecting := m.state == StateReconnecting
	if !reconnecting {
		m.state = StateConnecting
	}
	cancel := make(chan struct{})
	m.cancel = cancel
	onState := m.onState
	state := m.state
	m.mu.Unlock()

	m.metrics.RecordConnectionState(state)
	if onState != nil {
		onState(state)
	}

	m.wg.Add(1)
	go m.connectLoop(cancel, reconnecting)
}

// connectLoop retries the transport with the fixed delay, unboundedly,
// until success or cancellation. There is no backoff growth and no
// retry ceiling; reachability is a liveness property, not a deadline.
func (m *ConnectionManager) connectLoop(cancel <-chan struct{}, reconnecting bool) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		m.attempting = false
		relaunch := m.retryRequested && m.state == StateReconnecting
		m.retryRequested = false
		addr := m.addr
		m.mu.Unlock()

		if relaunch {
			m.Connect(addr)
		}
	}()

	m.mu.Lock()
	addr := m.addr
	delay := m.retryDelay
	m.mu.Unlock()

	for attempt := 1; ; attempt++ {
		select {
		case <-m.shutdown:
			return
		case <-cancel:
			return
		default:
		}

		m.metrics.RecordConnectAttempt()
		err := m.backend.Connect(addr)
		if err == nil {
			m.logf("connected to %s after %d attempt(s)", addr, attempt)
			m.authenticate(reconnecting)
			return
		}

		m.metrics.RecordConnectFailure()
		m.logf("connection attempt %d to %s failed: %v", attempt, addr, err)

		select {
		case <-m.shutdown:
			return
		case <-cancel:
			return
		case <-time.After(delay):
		}
	}
}

// authenticate runs the fixed priority order: (a) identity the backend
// already holds, (b) persisted session token, (c) explicit credentials
// via Login/Register. Exactly one path executes per connection cycle.
func (m *ConnectionManager) authenticate(reconnecting bool) {
	m.setState(StateAuthenticating)

	m.mu.Lock()
	m.pendingReset = false
	m.mu.Unlock()

	if m.backend.Authenticated() {
		m.logf("backend already holds an authenticated identity")
		m.becomeReady(reconnecting, true)
		return
	}

	if token, ok := m.sessions.Token(); ok {
		user, err := m.backend.ResumeSession(token)
		if err == nil {
			m.logf("session resumed for user %s", user.ID)
			// Stale pre-drop state goes before the fresh seed lands,
			// never after
			if reconnecting {
				m.dispatch(ConnectionLost{})
			}
			m.dispatch(UserSet{User: user})
			m.becomeReady(false, true)
			return
		}

		// Only a rejection from the server invalidates the token. A
		// transport failure mid-resume says nothing about the token;
		// it stays for the next attempt.
		var authErr AuthError
		if errors.As(err, &authErr) {
			m.logf("session resume rejected: %v", err)
			if clearErr := m.sessions.Clear(); clearErr != nil {
				m.logf("failed to clear rejected session token: %v", clearErr)
			}
		} else {
			m.logf("session resume failed: %v", err)
		}
	}

	m.mu.Lock()
	m.pendingReset = reconnecting
	m.mu.Unlock()
	m.logf("no resumable session, awaiting credentials")
}

// becomeReady finishes the connection cycle. After a reconnect the
// stale state loaded before the drop is discarded now that the new
// connection is confirmed, and a fresh sync is triggered. Callers that
// seed fresh data dispatch the reset themselves, before the seed, and
// pass reconnecting=false.
func (m *ConnectionManager) becomeReady(reconnecting, resumed bool) {
	if reconnecting {
		m.dispatch(ConnectionLost{})
	}

	m.setState(StateReady)

	m.mu.Lock()
	onReady := m.onReady
	m.mu.Unlock()
	if onReady != nil {
		onReady(resumed)
	}
}

// Login authenticates with explicit credentials. Only valid while
// awaiting credentials; an authentication rejection is returned to the
// caller and is not retried.
func (m *ConnectionManager) Login(email, password string) error {
	m.mu.Lock()
	if m.state != StateAuthenticating {
		m.mu.Unlock()
		return ErrNotAwaitingCredentials
	}
	m.mu.Unlock()

	user, token, err := m.backend.Login(email, password)
	if err != nil {
		m.logf("login rejected: %v", err)
		return err
	}

	if err := m.sessions.Set(token, user.ID); err != nil {
		m.logf("failed to persist session: %v", err)
	}
	if err := m.sessions.SetLastEmail(email); err != nil {
		m.logf("failed to persist last email: %v", err)
	}

	m.discardStaleState()
	m.dispatch(UserSet{User: user})
	m.becomeReady(false, false)
	return nil
}

// discardStaleState resets the stores if pre-drop state is still
// loaded, so a credential login after a failed reconnect-resume does
// not seed on top of it
func (m *ConnectionManager) discardStaleState() {
	m.mu.Lock()
	pending := m.pendingReset
	m.pendingReset = false
	m.mu.Unlock()

	if pending {
		m.dispatch(ConnectionLost{})
	}
}

// Register creates an account and authenticates, persisting the new
// session the same way a login does
func (m *ConnectionManager) Register(username, email, password string) error {
	m.mu.Lock()
	if m.state != StateAuthenticating {
		m.mu.Unlock()
		return ErrNotAwaitingCredentials
	}
	m.mu.Unlock()

	user, token, err := m.backend.Register(username, email, password)
	if err != nil {
		m.logf("registration rejected: %v", err)
		return err
	}

	if err := m.sessions.Set(token, user.ID); err != nil {
		m.logf("failed to persist session: %v", err)
	}
	if err := m.sessions.SetLastEmail(email); err != nil {
		m.logf("failed to persist last email: %v", err)
	}

	m.discardStaleState()
	m.dispatch(UserSet{User: user})
	m.becomeReady(false, false)
	return nil
}

// HandleConnectionLoss moves a ready connection to reconnecting and
// restarts the retry loop. Already-loaded state is preserved until the
// new connection is confirmed.
func (m *ConnectionManager) HandleConnectionLoss() {
	m.mu.Lock()
	if m.state != StateReady && m.state != StateAuthenticating {
		m.mu.Unlock()
		return
	}
	m.state = StateReconnecting
	addr := m.addr
	onState := m.onState
	m.mu.Unlock()

	m.metrics.RecordConnectionState(StateReconnecting)
	m.logf("connection lost, reconnecting to %s", addr)
	if onState != nil {
		onState(StateReconnecting)
	}

	m.Connect(addr)
}

// Logout tears down the session: the backend is told, the token is
// cleared and every store resets. The token is cleared even when the
// backend call fails.
func (m *ConnectionManager) Logout() error {
	m.mu.Lock()
	if m.state != StateReady {
		m.mu.Unlock()
		return ErrNotReady
	}
	m.state = StateLoggingOut
	m.retryRequested = false
	m.pendingReset = false
	if m.cancel != nil {
		close(m.cancel)
		m.cancel = nil
	}
	onState := m.onState
	m.mu.Unlock()

	m.metrics.RecordConnectionState(StateLoggingOut)
	if onState != nil {
		onState(StateLoggingOut)
	}

	err := m.backend.Logout()
	if err != nil {
		m.logf("backend logout failed: %v", err)
	}

	m.dispatch(LoggedOut{})
	m.backend.Disconnect()
	m.setState(StateDisconnected)
	return err
}

// Close cancels any retry loop and waits for it to stop
func (m *ConnectionManager) Close() {
	m.once.Do(func() {
		close(m.shutdown)
	})
	m.wg.Wait()
}
