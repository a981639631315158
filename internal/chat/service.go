package chat

import (
	"context"
	"time"

	"market-chat/internal/apperr"
	"market-chat/internal/identity"
	"market-chat/internal/models"
)

// Service exposes the chat boundary operations. Every operation acts on
// behalf of the user carried by ctx and fails with Unauthenticated when
// there is none.
type Service struct {
	resolver *Resolver
	store    *Store
	index    *Index
	now      func() time.Time
}

func NewService(resolver *Resolver, store *Store, index *Index) *Service {
	return &Service{resolver: resolver, store: store, index: index, now: time.Now}
}

func caller(ctx context.Context) (int64, error) {
	userID, ok := identity.CurrentUser(ctx)
	if !ok {
		return 0, apperr.ErrUnauthenticated
	}
	return userID, nil
}

// Contacts lists the caller's conversations as contact rows.
func (s *Service) Contacts(ctx context.Context) ([]models.Contact, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	threads, err := s.index.ConversationsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildContacts(userID, threads, s.now()), nil
}

// Conversations returns the caller's raw participant index.
func (s *Service) Conversations(ctx context.Context) ([]models.ConversationThread, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.index.ConversationsFor(ctx, userID)
}

// Send delivers a message from the caller to in.ReceiverID, creating their
// conversation on first contact. Content is checked before anything is
// written so an empty message leaves no conversation behind.
func (s *Service) Send(ctx context.Context, in models.SendRequest) (models.Message, error) {
	senderID, err := caller(ctx)
	if err != nil {
		return models.Message{}, err
	}
	content, err := normalizeContent(AppendInput{SenderID: senderID, Text: in.Text, Image: in.Image})
	if err != nil {
		return models.Message{}, err
	}

	conv, err := s.resolver.ResolveOrCreate(ctx, senderID, in.ReceiverID)
	if err != nil {
		return models.Message{}, err
	}

	content.ConversationID = conv.ID
	return s.store.Append(ctx, content)
}

// Thread returns the caller's messages with peerID. No conversation yet is
// not an error: the thread is simply empty.
func (s *Service) Thread(ctx context.Context, peerID int64) (models.Thread, error) {
	userID, err := caller(ctx)
	if err != nil {
		return models.Thread{}, err
	}
	conv, found, err := s.resolver.Lookup(ctx, userID, peerID)
	if err != nil {
		return models.Thread{}, err
	}
	if !found {
		return models.Thread{Messages: []models.Message{}}, nil
	}
	msgs, err := s.index.Messages(ctx, conv.ID)
	if err != nil {
		return models.Thread{}, err
	}
	return BuildThread(userID, conv.ID, msgs), nil
}
