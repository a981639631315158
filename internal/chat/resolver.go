package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"market-chat/internal/apperr"
	"market-chat/internal/cache"
	"market-chat/internal/models"
	"market-chat/internal/observability"
	"market-chat/internal/repositories"
)

// Conversations never change once created, so cached pairs never go stale.
const pairCacheTTL = 24 * time.Hour

// Resolver finds the conversation of an unordered user pair, creating it on
// first contact.
type Resolver struct {
	conversations repositories.ConversationRepository
	cache         cache.Cache
	events        EventSink
	timeout       time.Duration
	log           zerolog.Logger
}

func NewResolver(conversations repositories.ConversationRepository, pairCache cache.Cache, events EventSink, timeout time.Duration, log zerolog.Logger) *Resolver {
	if pairCache == nil {
		pairCache = cache.Noop{}
	}
	return &Resolver{
		conversations: conversations,
		cache:         pairCache,
		events:        orNoop(events),
		timeout:       timeout,
		log:           log,
	}
}

// CanonicalPair orders two user ids so that the same pair always maps to
// the same storage key.
func CanonicalPair(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

func validPair(a, b int64) bool {
	return a > 0 && b > 0 && a != b
}

// ResolveOrCreate returns the conversation between userA and userB. The
// argument order does not matter. When two callers race on first contact,
// the storage unique constraint picks the winner and the loser reads it back.
func (r *Resolver) ResolveOrCreate(ctx context.Context, userA, userB int64) (models.Conversation, error) {
	if !validPair(userA, userB) {
		return models.Conversation{}, apperr.ErrInvalidParticipants
	}
	low, high := CanonicalPair(userA, userB)

	ctx, span := tracer.Start(ctx, "chat.resolve_or_create")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat.user_low", low), attribute.Int64("chat.user_high", high))

	conv, found, err := r.lookup(ctx, low, high)
	if err != nil {
		return models.Conversation{}, err
	}
	if found {
		observability.IncResolution(observability.ResolutionFound)
		return conv, nil
	}

	createCtx, cancel := context.WithTimeout(ctx, r.timeout)
	conv, err = r.conversations.CreatePair(createCtx, low, high)
	cancel()
	switch {
	case err == nil:
		observability.IncResolution(observability.ResolutionCreated)
		r.remember(ctx, conv)
		r.events.ConversationCreated(ctx, conv)
		r.log.Debug().Int64("conversation_id", conv.ID).Int64("user_low", low).Int64("user_high", high).Msg("conversation created")
		return conv, nil
	case errors.Is(err, repositories.ErrConversationExists):
		conv, found, err = r.lookup(ctx, low, high)
		if err != nil {
			return models.Conversation{}, err
		}
		if !found {
			return models.Conversation{}, apperr.ResolveFailed(fmt.Errorf("pair %d:%d reported existing but not found", low, high))
		}
		observability.IncResolution(observability.ResolutionRaceLost)
		return conv, nil
	case errors.Is(err, repositories.ErrUnknownUser), errors.Is(err, repositories.ErrInvalidPair):
		return models.Conversation{}, apperr.InvalidParticipants(err)
	default:
		observability.IncStorageError("resolve")
		r.log.Warn().Err(err).Int64("user_low", low).Int64("user_high", high).Msg("create conversation failed")
		return models.Conversation{}, apperr.ResolveFailed(err)
	}
}

// Lookup returns the conversation between userA and userB without creating
// one. found is false when the pair has never exchanged a message.
func (r *Resolver) Lookup(ctx context.Context, userA, userB int64) (models.Conversation, bool, error) {
	if !validPair(userA, userB) {
		return models.Conversation{}, false, apperr.ErrInvalidParticipants
	}
	low, high := CanonicalPair(userA, userB)
	return r.lookup(ctx, low, high)
}

func (r *Resolver) lookup(ctx context.Context, low, high int64) (models.Conversation, bool, error) {
	if conv, ok := r.cached(ctx, low, high); ok {
		return conv, true, nil
	}

	findCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	conv, err := r.conversations.FindByPair(findCtx, low, high)
	if errors.Is(err, repositories.ErrConversationNotFound) {
		return models.Conversation{}, false, nil
	}
	if err != nil {
		observability.IncStorageError("resolve")
		r.log.Warn().Err(err).Int64("user_low", low).Int64("user_high", high).Msg("find conversation failed")
		return models.Conversation{}, false, apperr.ResolveFailed(err)
	}
	r.remember(ctx, conv)
	return conv, true, nil
}

func pairKey(low, high int64) string {
	return fmt.Sprintf("chat:conversation:%d:%d", low, high)
}

func (r *Resolver) cached(ctx context.Context, low, high int64) (models.Conversation, bool) {
	raw, err := r.cache.Get(ctx, pairKey(low, high))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			r.log.Debug().Err(err).Msg("pair cache get failed")
		}
		return models.Conversation{}, false
	}
	var conv models.Conversation
	if err := json.Unmarshal([]byte(raw), &conv); err != nil || conv.UserLow != low || conv.UserHigh != high {
		return models.Conversation{}, false
	}
	return conv, true
}

func (r *Resolver) remember(ctx context.Context, conv models.Conversation) {
	raw, err := json.Marshal(conv)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, pairKey(conv.UserLow, conv.UserHigh), string(raw), pairCacheTTL); err != nil {
		r.log.Debug().Err(err).Msg("pair cache set failed")
	}
}
