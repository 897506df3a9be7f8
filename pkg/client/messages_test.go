package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendBatchThenSingleSortsByTimestamp(t *testing.T) {
	store := NewMessageStore()

	store.AppendBatch("1", []Message{
		{ID: "a", SentAt: 5},
		{ID: "b", SentAt: 2},
	})
	store.AppendSingle("1", Message{ID: "c", SentAt: 3})

	log := store.Messages("1")
	require.Len(t, log, 3)
	assert.Equal(t, []int64{2, 3, 5}, []int64{log[0].SentAt, log[1].SentAt, log[2].SentAt})
	assert.Equal(t, "b", log[0].ID)
	assert.Equal(t, "c", log[1].ID)
	assert.Equal(t, "a", log[2].ID)
}

func TestEqualTimestampsKeepInsertionOrder(t *testing.T) {
	store := NewMessageStore()

	store.AppendSingle("ch", Message{ID: "first", SentAt: 10})
	store.AppendSingle("ch", Message{ID: "second", SentAt: 10})
	store.AppendBatch("ch", []Message{
		{ID: "third", SentAt: 10},
		{ID: "fourth", SentAt: 10},
	})

	log := store.Messages("ch")
	require.Len(t, log, 4)
	assert.Equal(t, "first", log[0].ID)
	assert.Equal(t, "second", log[1].ID)
	assert.Equal(t, "third", log[2].ID)
	assert.Equal(t, "fourth", log[3].ID)
}

func TestChannelsAreIndependent(t *testing.T) {
	store := NewMessageStore()

	store.AppendSingle("a", Message{ID: "m1", SentAt: 1})
	store.AppendSingle("b", Message{ID: "m2", SentAt: 2})

	assert.Len(t, store.Messages("a"), 1)
	assert.Len(t, store.Messages("b"), 1)
	assert.Empty(t, store.Messages("c"))
}

func TestMessagesReturnsACopy(t *testing.T) {
	store := NewMessageStore()
	store.AppendSingle("ch", Message{ID: "m1", SentAt: 1})

	log := store.Messages("ch")
	log[0].ID = "mutated"

	assert.Equal(t, "m1", store.Messages("ch")[0].ID)
}

func TestDraftContentCreatesDraftIfAbsent(t *testing.T) {
	store := NewMessageStore()

	_, ok := store.Draft("ch")
	require.False(t, ok)

	store.SetDraftContent("ch", "hello")

	draft, ok := store.Draft("ch")
	require.True(t, ok)
	assert.Equal(t, "hello", draft.Content)
	assert.Empty(t, draft.AttachmentID)
}

func TestDraftFieldsAreIndependent(t *testing.T) {
	store := NewMessageStore()

	store.SetDraftContent("ch", "hello")
	store.SetDraftAttachment("ch", "att-1")

	draft, ok := store.Draft("ch")
	require.True(t, ok)
	assert.Equal(t, "hello", draft.Content)
	assert.Equal(t, "att-1", draft.AttachmentID)

	// Updating one field leaves the other untouched
	store.SetDraftContent("ch", "edited")
	draft, _ = store.Draft("ch")
	assert.Equal(t, "edited", draft.Content)
	assert.Equal(t, "att-1", draft.AttachmentID)

	store.SetDraftAttachment("ch", "att-2")
	draft, _ = store.Draft("ch")
	assert.Equal(t, "edited", draft.Content)
	assert.Equal(t, "att-2", draft.AttachmentID)
}

func TestDraftIsIndependentOfMessageLog(t *testing.T) {
	store := NewMessageStore()

	store.SetDraftContent("ch", "draft text")
	store.AppendSingle("ch", Message{ID: "m1", SentAt: 1})

	draft, ok := store.Draft("ch")
	require.True(t, ok)
	assert.Equal(t, "draft text", draft.Content)
	assert.Len(t, store.Messages("ch"), 1)
}

func TestMessageStoreReset(t *testing.T) {
	store := NewMessageStore()
	store.AppendSingle("ch", Message{ID: "m1", SentAt: 1})
	store.SetDraftContent("ch", "draft")

	store.Reset()

	assert.Empty(t, store.Messages("ch"))
	_, ok := store.Draft("ch")
	assert.False(t, ok)
	assert.Zero(t, store.ChannelCount())
}

func TestAppendBatchEmptyIsNoOp(t *testing.T) {
	store := NewMessageStore()
	store.AppendBatch("ch", nil)
	assert.Zero(t, store.ChannelCount())
}
