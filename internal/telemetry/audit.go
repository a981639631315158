package telemetry

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"market-chat/internal/models"
	"market-chat/internal/observability"
)

// PublishTimeout bounds a single publish so a slow broker cannot hold up the
// request that triggered the event.
const PublishTimeout = 2 * time.Second

// Routing keys on the events exchange.
const (
	RoutingKeyAudit               = "audit.chat"
	RoutingKeyConversationCreated = "chat.conversation_created"
	RoutingKeyMessageSent         = "chat.message_sent"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Emitter publishes chat domain events and audit records. A nil Emitter or
// one without a publisher drops everything.
type Emitter struct {
	publisher   Publisher
	service     string
	environment string
	log         zerolog.Logger
}

type Envelope struct {
	SchemaVersion int     `json:"schema_version"`
	EventType     string  `json:"event_type"`
	OccurredAt    string  `json:"occurred_at"`
	Service       string  `json:"service"`
	Environment   string  `json:"environment"`
	RequestID     string  `json:"request_id,omitempty"`
	UserID        *string `json:"user_id,omitempty"`
	Payload       any     `json:"payload"`
}

type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

func NewEmitter(publisher Publisher, service, environment string, log zerolog.Logger) *Emitter {
	return &Emitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
		log:         log,
	}
}

// Audit emits a free-form audit record.
func (e *Emitter) Audit(ctx context.Context, level, text string, userID *int64) {
	e.emit(ctx, RoutingKeyAudit, "audit_log", userID, AuditPayload{Level: level, Text: text})
}

// ConversationCreated is emitted once per pair, by the creator that won.
func (e *Emitter) ConversationCreated(ctx context.Context, conv models.Conversation) {
	e.emit(ctx, RoutingKeyConversationCreated, "conversation_created", nil, conv)
}

// MessageSent is emitted after a message has been stored.
func (e *Emitter) MessageSent(ctx context.Context, msg models.Message) {
	sender := msg.SenderID
	e.emit(ctx, RoutingKeyMessageSent, "message_sent", &sender, models.MessageEvent{Type: "message", Message: &msg})
}

func (e *Emitter) emit(ctx context.Context, routingKey, eventType string, userID *int64, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := Envelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     RequestIDFromContext(ctx),
		UserID:        formatUserID(userID),
		Payload:       payload,
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()
	if err := e.publisher.Publish(ctx, routingKey, envelope); err != nil {
		observability.IncPublishError()
		e.log.Warn().Err(err).Str("routing_key", routingKey).Str("request_id", envelope.RequestID).Msg("event publish failed")
	}
}

func formatUserID(userID *int64) *string {
	if userID == nil {
		return nil
	}
	value := strconv.FormatInt(*userID, 10)
	return &value
}
