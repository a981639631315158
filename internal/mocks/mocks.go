package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"market-chat/internal/models"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) FindByPair(ctx context.Context, low int64, high int64) (models.Conversation, error) {
	args := m.Called(ctx, low, high)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) CreatePair(ctx context.Context, low int64, high int64) (models.Conversation, error) {
	args := m.Called(ctx, low, high)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForParticipant(ctx context.Context, userID int64) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var list []models.Conversation
	if val := args.Get(0); val != nil {
		list = val.([]models.Conversation)
	}
	return list, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Append(ctx context.Context, conversationID int64, senderID int64, text *string, image *string) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, text, image)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListByConversation(ctx context.Context, conversationID int64) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ListByConversations(ctx context.Context, conversationIDs []int64) ([]models.Message, error) {
	args := m.Called(ctx, conversationIDs)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, ids []int64) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type EventSinkMock struct {
	mock.Mock
}

func (m *EventSinkMock) ConversationCreated(ctx context.Context, conv models.Conversation) {
	m.Called(ctx, conv)
}

func (m *EventSinkMock) MessageSent(ctx context.Context, msg models.Message) {
	m.Called(ctx, msg)
}

type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) Contacts(ctx context.Context) ([]models.Contact, error) {
	args := m.Called(ctx)
	var contacts []models.Contact
	if val := args.Get(0); val != nil {
		contacts = val.([]models.Contact)
	}
	return contacts, args.Error(1)
}

func (m *ChatServiceMock) Conversations(ctx context.Context) ([]models.ConversationThread, error) {
	args := m.Called(ctx)
	var threads []models.ConversationThread
	if val := args.Get(0); val != nil {
		threads = val.([]models.ConversationThread)
	}
	return threads, args.Error(1)
}

func (m *ChatServiceMock) Send(ctx context.Context, req models.SendRequest) (models.Message, error) {
	args := m.Called(ctx, req)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ChatServiceMock) Thread(ctx context.Context, peerID int64) (models.Thread, error) {
	args := m.Called(ctx, peerID)
	var thread models.Thread
	if val := args.Get(0); val != nil {
		thread = val.(models.Thread)
	}
	return thread, args.Error(1)
}

// PublisherMock stands in for the AMQP event publisher.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
