package client

import (
	"fmt"
	"sync"
)

const (
	sessionTokenKey = "session_token"
	lastEmailKey    = "last_email"
)

// SessionStore owns the session credential. It reads the persisted
// token exactly once at construction and is the only component that
// touches the durable key.
type SessionStore struct {
	mu      sync.RWMutex
	store   TokenStore
	session *Session
}

// NewSessionStore creates a session store, loading any persisted token
func NewSessionStore(store TokenStore) (*SessionStore, error) {
	s := &SessionStore{store: store}

	token, err := store.Get(sessionTokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read persisted session: %w", err)
	}
	if token != "" {
		s.session = &Session{Token: token}
	}

	return s, nil
}

// Token returns the current session token, if any
func (s *SessionStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return "", false
	}
	return s.session.Token, true
}

// Session returns a copy of the current session, if any
func (s *SessionStore) Session() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// Set stores a new session and persists the token
func (s *SessionStore) Set(token, userID string) error {
	s.mu.Lock()
	s.session = &Session{Token: token, UserID: userID}
	s.mu.Unlock()

	return s.store.Set(sessionTokenKey, token)
}

// SetUserID fills in the user ID after a successful resume. The token
// is already persisted; only the in-memory session changes.
func (s *SessionStore) SetUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.UserID = userID
	}
}

// Clear forgets the session and removes the persisted token. Called on
// explicit logout and on a rejected resume attempt.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	return s.store.Remove(sessionTokenKey)
}

// LastEmail returns the last email used to log in, for form prefill
func (s *SessionStore) LastEmail() string {
	email, _ := s.store.Get(lastEmailKey)
	return email
}

// SetLastEmail persists the last email used to log in
func (s *SessionStore) SetLastEmail(email string) error {
	return s.store.Set(lastEmailKey, email)
}
