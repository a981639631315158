package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"market-chat/internal/cache"
	"market-chat/internal/models"
	"market-chat/internal/repositories"
)

// memStore is an in-memory stand-in for the three repositories with the same
// uniqueness and participant rules as the SQL schema.
type memStore struct {
	mu       sync.Mutex
	clock    time.Time
	nextConv int64
	nextMsg  int64
	users    map[int64]models.User
	convs    []models.Conversation
	msgs     []models.Message

	// beforeCreate runs outside the lock right before CreatePair inserts.
	beforeCreate func()
	// frozen keeps every timestamp equal so ordering falls back to ids.
	frozen bool
}

func newMemStore(users ...models.User) *memStore {
	s := &memStore{
		clock: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		users: map[int64]models.User{},
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) tick() time.Time {
	if !s.frozen {
		s.clock = s.clock.Add(time.Second)
	}
	return s.clock
}

func (s *memStore) FindByPair(_ context.Context, low int64, high int64) (models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.convs {
		if c.UserLow == low && c.UserHigh == high {
			return c, nil
		}
	}
	return models.Conversation{}, repositories.ErrConversationNotFound
}

func (s *memStore) CreatePair(_ context.Context, low int64, high int64) (models.Conversation, error) {
	if s.beforeCreate != nil {
		s.beforeCreate()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if low >= high {
		return models.Conversation{}, repositories.ErrInvalidPair
	}
	if _, ok := s.users[low]; !ok {
		return models.Conversation{}, repositories.ErrUnknownUser
	}
	if _, ok := s.users[high]; !ok {
		return models.Conversation{}, repositories.ErrUnknownUser
	}
	for _, c := range s.convs {
		if c.UserLow == low && c.UserHigh == high {
			return models.Conversation{}, repositories.ErrConversationExists
		}
	}
	s.nextConv++
	conv := models.Conversation{ID: s.nextConv, UserLow: low, UserHigh: high, CreatedAt: s.tick()}
	s.convs = append(s.convs, conv)
	return conv, nil
}

func (s *memStore) GetConversation(_ context.Context, conversationID int64) (models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.convs {
		if c.ID == conversationID {
			return c, nil
		}
	}
	return models.Conversation{}, repositories.ErrConversationNotFound
}

func (s *memStore) ListForParticipant(_ context.Context, userID int64) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Conversation{}
	for _, c := range s.convs {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) Append(_ context.Context, conversationID int64, senderID int64, text *string, image *string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.convs {
		if c.ID != conversationID || !c.HasParticipant(senderID) {
			continue
		}
		s.nextMsg++
		msg := models.Message{
			ID:             s.nextMsg,
			ConversationID: c.ID,
			SenderID:       senderID,
			ReceiverID:     c.Peer(senderID),
			Text:           text,
			Image:          image,
			CreatedAt:      s.tick(),
		}
		s.msgs = append(s.msgs, msg)
		return msg, nil
	}
	return models.Message{}, repositories.ErrNotParticipant
}

func (s *memStore) ListByConversation(_ context.Context, conversationID int64) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListByConversations returns messages newest first on purpose so callers
// cannot rely on backend ordering.
func (s *memStore) ListByConversations(_ context.Context, conversationIDs []int64) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range conversationIDs {
		want[id] = true
	}
	out := []models.Message{}
	for _, m := range s.msgs {
		if want[m.ConversationID] {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[j].Before(out[i]) })
	return out, nil
}

func (s *memStore) BulkUsers(_ context.Context, ids []int64) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *memStore) conversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

func (s *memStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// mapCache is an in-memory cache.Cache.
type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string]string{}}
}

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Ping(context.Context) error { return nil }
func (c *mapCache) Close() error               { return nil }

func strPtr(s string) *string { return &s }
