package chat

import (
	"context"

	"go.opentelemetry.io/otel"

	"market-chat/internal/models"
)

var tracer = otel.Tracer("market-chat/chat")

// EventSink receives notifications after state changes have been persisted.
// Implementations bound their own delivery time and never fail the caller.
type EventSink interface {
	ConversationCreated(ctx context.Context, conv models.Conversation)
	MessageSent(ctx context.Context, msg models.Message)
}

type noopEvents struct{}

func (noopEvents) ConversationCreated(context.Context, models.Conversation) {}
func (noopEvents) MessageSent(context.Context, models.Message)              {}

func orNoop(events EventSink) EventSink {
	if events == nil {
		return noopEvents{}
	}
	return events
}
