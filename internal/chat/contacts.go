package chat

import (
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"market-chat/internal/models"
)

// ImagePlaceholder is shown as the preview of an image-only message.
const ImagePlaceholder = "[image]"

// LastMessage returns the message with the greatest ordering key, or nil.
func LastMessage(msgs []models.Message) *models.Message {
	if len(msgs) == 0 {
		return nil
	}
	last := lo.MaxBy(msgs, func(a, b models.Message) bool { return b.Before(a) })
	return &last
}

// Preview renders a message for the contact list.
func Preview(msg *models.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Text != nil && *msg.Text != "" {
		return *msg.Text
	}
	if msg.Image != nil && *msg.Image != "" {
		return ImagePlaceholder
	}
	return ""
}

// RelativeTime renders t relative to now, e.g. "3 minutes ago".
func RelativeTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// BuildContacts derives viewerID's contact list from its conversations,
// most recently active first.
func BuildContacts(viewerID int64, threads []models.ConversationThread, now time.Time) []models.Contact {
	contacts := lo.Map(threads, func(t models.ConversationThread, _ int) models.Contact {
		contact := models.Contact{
			ConversationID: t.ID,
			Peer:           peerProfile(viewerID, t),
			CreatedAt:      t.CreatedAt,
		}
		if last := LastMessage(t.Messages); last != nil {
			at := last.CreatedAt
			contact.LastMessage = last
			contact.LastMessageTime = &at
			contact.Preview = Preview(last)
			contact.RelativeTime = RelativeTime(at, now)
		}
		return contact
	})

	sort.SliceStable(contacts, func(i, j int) bool {
		ai, aj := activity(contacts[i]), activity(contacts[j])
		if ai.Equal(aj) {
			return contacts[i].ConversationID > contacts[j].ConversationID
		}
		return ai.After(aj)
	})
	return contacts
}

// ThreadWith picks the conversation with peerID out of viewerID's threads.
// A peer without a conversation yields an empty thread.
func ThreadWith(viewerID, peerID int64, threads []models.ConversationThread) models.Thread {
	t, ok := lo.Find(threads, func(t models.ConversationThread) bool {
		return t.HasParticipant(peerID) && t.Peer(viewerID) == peerID
	})
	if !ok {
		return models.Thread{Messages: []models.Message{}}
	}
	return BuildThread(viewerID, t.ID, t.Messages)
}

// BuildThread wraps ordered messages with the time of the last message the
// viewer received.
func BuildThread(viewerID, conversationID int64, msgs []models.Message) models.Thread {
	thread := models.Thread{ConversationID: conversationID, Messages: msgs}
	if thread.Messages == nil {
		thread.Messages = []models.Message{}
	}
	received := lo.Filter(thread.Messages, func(m models.Message, _ int) bool { return m.ReceiverID == viewerID })
	if last := LastMessage(received); last != nil {
		at := last.CreatedAt
		thread.LastReceivedAt = &at
	}
	return thread
}

func peerProfile(viewerID int64, t models.ConversationThread) models.User {
	peerID := t.Peer(viewerID)
	if u, ok := lo.Find(t.Participants, func(u models.User) bool { return u.ID == peerID }); ok {
		return u
	}
	return models.User{ID: peerID}
}

func activity(c models.Contact) time.Time {
	if c.LastMessageTime != nil {
		return *c.LastMessageTime
	}
	return c.CreatedAt
}
