package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"market-chat/internal/models"
)

// ConversationRepository abstracts conversation persistence. Callers pass
// the pair already in canonical order (low < high).
type ConversationRepository interface {
	FindByPair(ctx context.Context, low int64, high int64) (models.Conversation, error)
	CreatePair(ctx context.Context, low int64, high int64) (models.Conversation, error)
	GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error)
	ListForParticipant(ctx context.Context, userID int64) ([]models.Conversation, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, user_low, user_high, created_at`

// FindByPair returns the conversation for the canonical pair.
func (r *ConversationRepo) FindByPair(ctx context.Context, low int64, high int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE user_low=$1 AND user_high=$2`, low, high)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return models.Conversation{}, fmt.Errorf("find conversation by pair: %w", err)
	}
	return conv, nil
}

// CreatePair inserts the conversation unless the pair already has one.
// Losing a concurrent insert yields ErrConversationExists; the unique
// constraint decides the winner, not this process.
func (r *ConversationRepo) CreatePair(ctx context.Context, low int64, high int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `INSERT INTO conversations (user_low, user_high) VALUES ($1, $2)
        ON CONFLICT ON CONSTRAINT conversations_pair_unique DO NOTHING
        RETURNING `+conversationColumns, low, high)
	switch {
	case err == nil:
		return conv, nil
	case errors.Is(err, sql.ErrNoRows):
		return models.Conversation{}, ErrConversationExists
	}

	switch pqCode(err) {
	case pqUniqueViolation:
		return models.Conversation{}, ErrConversationExists
	case pqForeignKeyViolation:
		return models.Conversation{}, ErrUnknownUser
	case pqCheckViolation:
		return models.Conversation{}, ErrInvalidPair
	}
	return models.Conversation{}, fmt.Errorf("create conversation: %w", err)
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return models.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

// ListForParticipant returns every conversation the user is part of, oldest first.
func (r *ConversationRepo) ListForParticipant(ctx context.Context, userID int64) ([]models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations
        WHERE user_low=$1 OR user_high=$1
        ORDER BY created_at ASC, id ASC`
	convs := []models.Conversation{}
	if err := r.db.SelectContext(ctx, &convs, query, userID); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}
