package client

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrAlreadyFriends is returned when a request targets an existing friend
	ErrAlreadyFriends = errors.New("already friends with this user")
	// ErrRequestExists is returned when a pending request for the user already exists
	ErrRequestExists = errors.New("a friend request for this user already exists")
	// ErrNoPendingRequest is returned by approve/reject without a matching request
	ErrNoPendingRequest = errors.New("no pending friend request for this user")
	// ErrNotFriend is returned when removing a user who is not a friend
	ErrNotFriend = errors.New("user is not a friend")
)

// RelationshipStore tracks the friends list and pending friend
// requests. A given user ID is never in both at once; every operation
// preserves that disjointness.
type RelationshipStore struct {
	mu       sync.RWMutex
	friends  map[string]struct{}
	requests map[string]FriendRequest
}

// NewRelationshipStore creates an empty relationship store
func NewRelationshipStore() *RelationshipStore {
	return &RelationshipStore{
		friends:  make(map[string]struct{}),
		requests: make(map[string]FriendRequest),
	}
}

// Seed replaces the store contents from a login/resume payload. A user
// appearing in both lists keeps only the friendship.
func (s *RelationshipStore) Seed(friends []string, requests []FriendRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.friends = make(map[string]struct{}, len(friends))
	s.requests = make(map[string]FriendRequest, len(requests))

	for _, id := range friends {
		s.friends[id] = struct{}{}
	}
	for _, req := range requests {
		if _, ok := s.friends[req.FriendID]; ok {
			continue
		}
		s.requests[req.FriendID] = req
	}
}

// SendRequest records an outbound pending request. Fails if a request
// or friendship with that user already exists.
func (s *RelationshipStore) SendRequest(friendID string, sentAt int64) error {
	return s.addRequest(FriendRequest{FriendID: friendID, Direction: RequestSent, SentAt: sentAt})
}

// ReceiveRequest records an inbound pending request from a push event.
// The same guards apply; duplicates report an error for the dispatcher
// to absorb.
func (s *RelationshipStore) ReceiveRequest(req FriendRequest) error {
	req.Direction = RequestReceived
	return s.addRequest(req)
}

func (s *RelationshipStore) addRequest(req FriendRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.friends[req.FriendID]; ok {
		return ErrAlreadyFriends
	}
	if _, ok := s.requests[req.FriendID]; ok {
		return ErrRequestExists
	}

	s.requests[req.FriendID] = req
	return nil
}

// Approve removes the matching pending request and adds the user to
// the friends list
func (s *RelationshipStore) Approve(friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[friendID]; !ok {
		return ErrNoPendingRequest
	}

	delete(s.requests, friendID)
	s.friends[friendID] = struct{}{}
	return nil
}

// Reject removes the matching pending request only
func (s *RelationshipStore) Reject(friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[friendID]; !ok {
		return ErrNoPendingRequest
	}

	delete(s.requests, friendID)
	return nil
}

// RemoveFriend removes the user from the friends list only
func (s *RelationshipStore) RemoveFriend(friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.friends[friendID]; !ok {
		return ErrNotFriend
	}

	delete(s.friends, friendID)
	return nil
}

// IsFriend reports whether the user is in the friends list
func (s *RelationshipStore) IsFriend(friendID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.friends[friendID]
	return ok
}

// HasPendingRequest reports whether a pending request exists for the user
func (s *RelationshipStore) HasPendingRequest(friendID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.requests[friendID]
	return ok
}

// Friends returns the friends list, sorted for stable iteration
func (s *RelationshipStore) Friends() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.friends))
	for id := range s.friends {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Requests returns the pending requests, sorted by friend ID
func (s *RelationshipStore) Requests() []FriendRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FriendRequest, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FriendID < out[j].FriendID
	})
	return out
}

// Reset drops all relationship state. Invoked on logout and connection
// loss.
func (s *RelationshipStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends = make(map[string]struct{})
	s.requests = make(map[string]FriendRequest)
}
