package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"market-chat/internal/models"
)

// MessageRepository defines interactions for conversation messages.
type MessageRepository interface {
	Append(ctx context.Context, conversationID int64, senderID int64, text *string, image *string) (models.Message, error)
	ListByConversation(ctx context.Context, conversationID int64) ([]models.Message, error)
	ListByConversations(ctx context.Context, conversationIDs []int64) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, sender_id, receiver_id, text, image, created_at`

// Append stores a message in one statement. The receiver is derived from the
// conversation row, and the row is only written when the sender is one of
// its participants.
func (r *MessageRepo) Append(ctx context.Context, conversationID int64, senderID int64, text *string, image *string) (models.Message, error) {
	query := `INSERT INTO messages (conversation_id, sender_id, receiver_id, text, image)
        SELECT c.id, $2, CASE WHEN c.user_low = $2 THEN c.user_high ELSE c.user_low END, $3, $4
        FROM conversations c
        WHERE c.id = $1 AND (c.user_low = $2 OR c.user_high = $2)
        RETURNING ` + messageColumns

	var msg models.Message
	err := r.db.GetContext(ctx, &msg, query, conversationID, senderID, text, image)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrNotParticipant
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// ListByConversation returns the conversation's messages by ordering key.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID int64) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE conversation_id=$1
        ORDER BY created_at ASC, id ASC`
	msgs := []models.Message{}
	if err := r.db.SelectContext(ctx, &msgs, query, conversationID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// ListByConversations loads the messages of several conversations at once,
// grouped by conversation and ordered by ordering key inside each group.
func (r *MessageRepo) ListByConversations(ctx context.Context, conversationIDs []int64) ([]models.Message, error) {
	msgs := []models.Message{}
	if len(conversationIDs) == 0 {
		return msgs, nil
	}
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE conversation_id = ANY($1)
        ORDER BY conversation_id ASC, created_at ASC, id ASC`
	if err := r.db.SelectContext(ctx, &msgs, query, pq.Array(conversationIDs)); err != nil {
		return nil, fmt.Errorf("list messages for conversations: %w", err)
	}
	return msgs, nil
}
