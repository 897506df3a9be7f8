package client

import (
	"sort"
	"sync"
)

// MessageStore keeps the per-channel message log and the per-channel
// draft buffer. Each channel's log is always sorted ascending by
// SentAt; equal timestamps keep their insertion order, so final
// arrival order never changes the resulting sequence.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[string][]Message
	drafts   map[string]Draft
}

// NewMessageStore creates an empty message store
func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[string][]Message),
		drafts:   make(map[string]Draft),
	}
}

// AppendSingle inserts one message into a channel's log and re-sorts
func (s *MessageStore) AppendSingle(channelID string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := append(s.messages[channelID], msg)
	sortMessages(log)
	s.messages[channelID] = log
}

// AppendBatch merges a page of fetched messages (arbitrary order) into
// a channel's log and re-sorts
func (s *MessageStore) AppendBatch(channelID string, msgs []Message) {
	if len(msgs) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := append(s.messages[channelID], msgs...)
	sortMessages(log)
	s.messages[channelID] = log
}

// sortMessages sorts ascending by SentAt. The sort must be stable so
// equal timestamps retain their relative insertion order.
func sortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SentAt < msgs[j].SentAt
	})
}

// Messages returns a copy of a channel's log
func (s *MessageStore) Messages(channelID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.messages[channelID]
	out := make([]Message, len(log))
	copy(out, log)
	return out
}

// SetDraftContent sets the text of a channel's draft, creating the
// draft if absent and leaving any attachment untouched
func (s *MessageStore) SetDraftContent(channelID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.drafts[channelID]
	draft.Content = content
	s.drafts[channelID] = draft
}

// SetDraftAttachment sets the attachment of a channel's draft,
// creating the draft if absent and leaving any text untouched
func (s *MessageStore) SetDraftAttachment(channelID, attachmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.drafts[channelID]
	draft.AttachmentID = attachmentID
	s.drafts[channelID] = draft
}

// Draft returns a channel's draft, if one exists
func (s *MessageStore) Draft(channelID string) (Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, ok := s.drafts[channelID]
	return draft, ok
}

// ChannelCount returns the number of channels with stored messages
func (s *MessageStore) ChannelCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Reset drops all logs and drafts. Invoked on logout and connection
// loss.
func (s *MessageStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = make(map[string][]Message)
	s.drafts = make(map[string]Draft)
}
