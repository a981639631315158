package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"market-chat/internal/apperr"
	"market-chat/internal/models"
	"market-chat/internal/observability"
	"market-chat/internal/repositories"
)

var validate = validator.New()

// AppendInput is one message to store. Text and Image are optional but at
// least one must be non-empty after trimming.
type AppendInput struct {
	ConversationID int64
	SenderID       int64
	Text           *string `validate:"omitempty,max=2000"`
	Image          *string `validate:"omitempty,uri,max=2048"`
}

// Store appends messages to conversations.
type Store struct {
	messages repositories.MessageRepository
	events   EventSink
	timeout  time.Duration
	log      zerolog.Logger
}

func NewStore(messages repositories.MessageRepository, events EventSink, timeout time.Duration, log zerolog.Logger) *Store {
	return &Store{
		messages: messages,
		events:   orNoop(events),
		timeout:  timeout,
		log:      log,
	}
}

// Append persists the message with a server-assigned timestamp and id.
func (s *Store) Append(ctx context.Context, in AppendInput) (models.Message, error) {
	in, err := normalizeContent(in)
	if err != nil {
		return models.Message{}, err
	}
	if in.SenderID <= 0 {
		return models.Message{}, apperr.ErrInvalidParticipants
	}
	if in.ConversationID <= 0 {
		return models.Message{}, apperr.ErrNotAParticipant
	}

	ctx, span := tracer.Start(ctx, "chat.append")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat.conversation_id", in.ConversationID))

	appendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	msg, err := s.messages.Append(appendCtx, in.ConversationID, in.SenderID, in.Text, in.Image)
	if errors.Is(err, repositories.ErrNotParticipant) {
		return models.Message{}, apperr.ErrNotAParticipant
	}
	if err != nil {
		observability.IncStorageError("append")
		s.log.Warn().Err(err).Int64("conversation_id", in.ConversationID).Msg("append message failed")
		return models.Message{}, apperr.AppendFailed(err)
	}

	observability.IncMessageAppended()
	s.events.MessageSent(ctx, msg)
	return msg, nil
}

// normalizeContent trims text and image, turns blanks into nil and checks
// the content rules. It performs no I/O.
func normalizeContent(in AppendInput) (AppendInput, error) {
	in.Text = trimmed(in.Text)
	in.Image = trimmed(in.Image)
	if in.Text == nil && in.Image == nil {
		return in, apperr.ErrEmptyMessage
	}
	if err := validate.Struct(in); err != nil {
		return in, apperr.InvalidMessage(err)
	}
	return in, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	t := strings.TrimSpace(*value)
	if t == "" {
		return nil
	}
	return &t
}
