package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"portfolio-chat/backend/internal/model"
	"portfolio-chat/backend/internal/service"
)

// MockChatService is a testify mock for interfaces.ChatService.
type MockChatService struct {
	mock.Mock
}

func NewMockChatService(t *testing.T) *MockChatService {
	m := &MockChatService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockChatService) StreamCompletion(ctx context.Context, req *service.CompletionRequest, ch chan<- model.StreamResponse) {
	m.Called(ctx, req, ch)
}

func (m *MockChatService) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Conversation), args.Error(1)
}

func (m *MockChatService) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}
