package models

import "time"

// Message is an immutable entry of a conversation. Text and Image are both
// optional but never both empty.
type Message struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID int64     `db:"conversation_id" json:"conversation_id"`
	SenderID       int64     `db:"sender_id" json:"sender_id"`
	ReceiverID     int64     `db:"receiver_id" json:"receiver_id"`
	Text           *string   `db:"text" json:"text,omitempty"`
	Image          *string   `db:"image" json:"image,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Before reports whether m sorts before other by ordering key (created_at, id).
func (m Message) Before(other Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}

// MessageEvent is published when a message has been stored.
type MessageEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}

// SendRequest is a message the caller wants delivered to ReceiverID.
type SendRequest struct {
	ReceiverID int64   `json:"receiver_id" binding:"required"`
	Text       *string `json:"text,omitempty"`
	Image      *string `json:"image,omitempty"`
}
