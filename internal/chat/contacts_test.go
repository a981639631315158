package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-chat/internal/models"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestLastMessageUsesOrderingKey(t *testing.T) {
	msgs := []models.Message{
		{ID: 3, CreatedAt: base},
		{ID: 9, CreatedAt: base.Add(time.Minute)},
		{ID: 7, CreatedAt: base.Add(time.Minute)},
	}

	last := LastMessage(msgs)

	require.NotNil(t, last)
	assert.Equal(t, int64(9), last.ID)
	assert.Nil(t, LastMessage(nil))
}

func TestPreview(t *testing.T) {
	image := "https://cdn.example.com/p.png"
	assert.Equal(t, "hello", Preview(&models.Message{Text: strPtr("hello"), Image: &image}))
	assert.Equal(t, ImagePlaceholder, Preview(&models.Message{Image: &image}))
	assert.Equal(t, ImagePlaceholder, Preview(&models.Message{Text: strPtr(""), Image: &image}))
	assert.Equal(t, "", Preview(nil))
}

func TestBuildContacts(t *testing.T) {
	now := base.Add(time.Hour)
	threads := []models.ConversationThread{
		{
			Conversation: models.Conversation{ID: 1, UserLow: 1, UserHigh: 2, CreatedAt: base},
			Participants: []models.User{{ID: 1, Name: "ann"}, {ID: 2, Name: "bob"}},
			Messages: []models.Message{
				{ID: 1, ConversationID: 1, SenderID: 1, ReceiverID: 2, Text: strPtr("hi"), CreatedAt: base.Add(time.Minute)},
				{ID: 4, ConversationID: 1, SenderID: 2, ReceiverID: 1, Text: strPtr("there"), CreatedAt: base.Add(57 * time.Minute)},
			},
		},
		{
			Conversation: models.Conversation{ID: 2, UserLow: 1, UserHigh: 3, CreatedAt: base.Add(10 * time.Minute)},
			Participants: []models.User{{ID: 1, Name: "ann"}, {ID: 3, Name: "cid"}},
			Messages:     []models.Message{},
		},
		{
			Conversation: models.Conversation{ID: 3, UserLow: 1, UserHigh: 4, CreatedAt: base},
			Participants: []models.User{{ID: 1, Name: "ann"}},
			Messages: []models.Message{
				{ID: 2, ConversationID: 3, SenderID: 4, ReceiverID: 1, Image: strPtr("https://x/y.png"), CreatedAt: base.Add(20 * time.Minute)},
			},
		},
	}

	contacts := BuildContacts(1, threads, now)

	require.Len(t, contacts, 3)

	assert.Equal(t, int64(1), contacts[0].ConversationID)
	assert.Equal(t, "bob", contacts[0].Peer.Name)
	assert.Equal(t, "there", contacts[0].Preview)
	assert.Equal(t, "3 minutes ago", contacts[0].RelativeTime)
	require.NotNil(t, contacts[0].LastMessageTime)
	assert.True(t, contacts[0].LastMessageTime.Equal(base.Add(57*time.Minute)))

	assert.Equal(t, int64(3), contacts[1].ConversationID)
	assert.Equal(t, int64(4), contacts[1].Peer.ID, "missing profile still yields the peer id")
	assert.Equal(t, ImagePlaceholder, contacts[1].Preview)

	assert.Equal(t, int64(2), contacts[2].ConversationID)
	assert.Nil(t, contacts[2].LastMessage)
	assert.Empty(t, contacts[2].Preview)
}

func TestBuildThreadLastReceived(t *testing.T) {
	msgs := []models.Message{
		{ID: 1, SenderID: 2, ReceiverID: 1, CreatedAt: base},
		{ID: 2, SenderID: 1, ReceiverID: 2, CreatedAt: base.Add(time.Minute)},
	}

	thread := BuildThread(1, 5, msgs)
	require.NotNil(t, thread.LastReceivedAt)
	assert.True(t, thread.LastReceivedAt.Equal(base))

	empty := BuildThread(1, 0, nil)
	assert.NotNil(t, empty.Messages)
	assert.Nil(t, empty.LastReceivedAt)
}

func TestThreadWith(t *testing.T) {
	threads := []models.ConversationThread{
		{Conversation: models.Conversation{ID: 1, UserLow: 1, UserHigh: 2}, Messages: []models.Message{{ID: 1}}},
		{Conversation: models.Conversation{ID: 2, UserLow: 1, UserHigh: 3}, Messages: []models.Message{{ID: 2}, {ID: 3}}},
	}

	assert.Len(t, ThreadWith(1, 3, threads).Messages, 2)
	assert.Equal(t, int64(1), ThreadWith(1, 2, threads).ConversationID)

	none := ThreadWith(1, 9, threads)
	assert.NotNil(t, none.Messages)
	assert.Empty(t, none.Messages)
}
