package models

import "time"

// Conversation is a durable thread between exactly two users. The pair is
// stored in canonical order so UserLow < UserHigh always holds.
type Conversation struct {
	ID        int64     `db:"id" json:"id"`
	UserLow   int64     `db:"user_low" json:"user_low"`
	UserHigh  int64     `db:"user_high" json:"user_high"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Participants returns both user ids of the conversation.
func (c Conversation) Participants() [2]int64 {
	return [2]int64{c.UserLow, c.UserHigh}
}

// HasParticipant reports whether userID is one of the two parties.
func (c Conversation) HasParticipant(userID int64) bool {
	return c.UserLow == userID || c.UserHigh == userID
}

// Peer returns the participant that is not userID.
func (c Conversation) Peer(userID int64) int64 {
	if c.UserLow == userID {
		return c.UserHigh
	}
	return c.UserLow
}

// ConversationThread is a conversation as seen by one of its participants:
// both parties' profiles and the full ordered message sequence.
type ConversationThread struct {
	Conversation
	Participants []User    `json:"participants"`
	Messages     []Message `json:"messages"`
}

// Contact is one row of a participant's contact list.
type Contact struct {
	ConversationID  int64      `json:"conversation_id"`
	Peer            User       `json:"peer"`
	LastMessage     *Message   `json:"last_message,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
	Preview         string     `json:"preview"`
	RelativeTime    string     `json:"relative_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Thread is the ordered message list between the viewer and one peer.
type Thread struct {
	ConversationID int64      `json:"conversation_id,omitempty"`
	Messages       []Message  `json:"messages"`
	LastReceivedAt *time.Time `json:"last_received_at,omitempty"`
}
