package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-api/internal/models"
	"chat-api/internal/repositories"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) GetDetail(ctx context.Context, conversationID string) (models.ConversationDetail, error) {
	args := m.Called(ctx, conversationID)
	var detail models.ConversationDetail
	if val := args.Get(0); val != nil {
		detail = val.(models.ConversationDetail)
	}
	return detail, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.ConversationDetail, error) {
	args := m.Called(ctx, userID)
	var list []models.ConversationDetail
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationDetail)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) ParticipantUserIDs(ctx context.Context, conversationID string) ([]string, error) {
	args := m.Called(ctx, conversationID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *ConversationRepositoryMock) CreateWithFirstMessage(ctx context.Context, callerID string, participantIDs []string) (models.ConversationDetail, error) {
	args := m.Called(ctx, callerID, participantIDs)
	var detail models.ConversationDetail
	if val := args.Get(0); val != nil {
		detail = val.(models.ConversationDetail)
	}
	return detail, args.Error(1)
}

func (m *ConversationRepositoryMock) Delete(ctx context.Context, conversationID string) ([]string, error) {
	args := m.Called(ctx, conversationID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *ConversationRepositoryMock) UpdateParticipants(ctx context.Context, conversationID string, desired []string) (models.ConversationDetail, []string, []string, error) {
	args := m.Called(ctx, conversationID, desired)
	var detail models.ConversationDetail
	if val := args.Get(0); val != nil {
		detail = val.(models.ConversationDetail)
	}
	var added, removed []string
	if val := args.Get(1); val != nil {
		added = val.([]string)
	}
	if val := args.Get(2); val != nil {
		removed = val.([]string)
	}
	return detail, added, removed, args.Error(3)
}

func (m *ConversationRepositoryMock) MarkRead(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) ListByConversation(ctx context.Context, conversationID string) ([]models.MessageDetail, error) {
	args := m.Called(ctx, conversationID)
	var msgs []models.MessageDetail
	if val := args.Get(0); val != nil {
		msgs = val.([]models.MessageDetail)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Send(ctx context.Context, messageID, conversationID, senderID, body string) (models.MessageDetail, error) {
	args := m.Called(ctx, messageID, conversationID, senderID, body)
	var msg models.MessageDetail
	if val := args.Get(0); val != nil {
		msg = val.(models.MessageDetail)
	}
	return msg, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Get(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) Search(ctx context.Context, term, excludeUsername string) ([]models.UserSummary, error) {
	args := m.Called(ctx, term, excludeUsername)
	var users []models.UserSummary
	if val := args.Get(0); val != nil {
		users = val.([]models.UserSummary)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) ClaimUsername(ctx context.Context, userID, username string) (models.CreateUsernameResult, error) {
	args := m.Called(ctx, userID, username)
	var result models.CreateUsernameResult
	if val := args.Get(0); val != nil {
		result = val.(models.CreateUsernameResult)
	}
	return result, args.Error(1)
}

var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
