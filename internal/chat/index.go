package chat

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"market-chat/internal/apperr"
	"market-chat/internal/models"
	"market-chat/internal/observability"
	"market-chat/internal/repositories"
)

// Index projects persisted conversations onto one participant. It never writes.
type Index struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	users         repositories.UserRepository
	timeout       time.Duration
	log           zerolog.Logger
}

func NewIndex(conversations repositories.ConversationRepository, messages repositories.MessageRepository, users repositories.UserRepository, timeout time.Duration, log zerolog.Logger) *Index {
	return &Index{
		conversations: conversations,
		messages:      messages,
		users:         users,
		timeout:       timeout,
		log:           log,
	}
}

// ConversationsFor returns every conversation userID takes part in, each with
// both participants' profiles and its messages in ordering-key order.
func (x *Index) ConversationsFor(ctx context.Context, userID int64) ([]models.ConversationThread, error) {
	if userID <= 0 {
		return nil, apperr.ErrInvalidParticipants
	}

	ctx, span := tracer.Start(ctx, "chat.conversations_for")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	convs, err := x.conversations.ListForParticipant(ctx, userID)
	if err != nil {
		return nil, x.failed(err, userID)
	}
	if len(convs) == 0 {
		return []models.ConversationThread{}, nil
	}

	ids := lo.Map(convs, func(c models.Conversation, _ int) int64 { return c.ID })
	msgs, err := x.messages.ListByConversations(ctx, ids)
	if err != nil {
		return nil, x.failed(err, userID)
	}
	byConversation := lo.GroupBy(msgs, func(m models.Message) int64 { return m.ConversationID })

	participantIDs := lo.Uniq(lo.FlatMap(convs, func(c models.Conversation, _ int) []int64 {
		return []int64{c.UserLow, c.UserHigh}
	}))
	profiles, err := x.users.BulkUsers(ctx, participantIDs)
	if err != nil {
		return nil, x.failed(err, userID)
	}
	profileByID := lo.KeyBy(profiles, func(u models.User) int64 { return u.ID })

	threads := make([]models.ConversationThread, 0, len(convs))
	for _, conv := range convs {
		messages := byConversation[conv.ID]
		if messages == nil {
			messages = []models.Message{}
		}
		SortMessages(messages)
		threads = append(threads, models.ConversationThread{
			Conversation: conv,
			Participants: []models.User{profileOr(profileByID, conv.UserLow), profileOr(profileByID, conv.UserHigh)},
			Messages:     messages,
		})
	}
	return threads, nil
}

// Messages returns one conversation's messages in ordering-key order.
func (x *Index) Messages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	msgs, err := x.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		observability.IncStorageError("thread")
		return nil, apperr.ResolveFailed(err)
	}
	SortMessages(msgs)
	return msgs, nil
}

func (x *Index) failed(err error, userID int64) error {
	observability.IncStorageError("conversations_for")
	x.log.Warn().Err(err).Int64("user_id", userID).Msg("load conversations failed")
	return apperr.ResolveFailed(err)
}

func profileOr(profiles map[int64]models.User, id int64) models.User {
	if u, ok := profiles[id]; ok {
		return u
	}
	return models.User{ID: id}
}

// SortMessages orders msgs by (created_at, id) in place. Storage already
// returns this order; sorting again keeps the guarantee independent of the
// backend.
func SortMessages(msgs []models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Before(msgs[j]) })
}
