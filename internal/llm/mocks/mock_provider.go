package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"portfolio-chat/backend/internal/llm"
)

// MockProvider is a testify mock for llm.Provider.
type MockProvider struct {
	mock.Mock
}

func NewMockProvider(t *testing.T) *MockProvider {
	m := &MockProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockProvider) ChatStream(ctx context.Context, req *llm.ChatRequest, ch chan<- llm.StreamDelta) error {
	args := m.Called(ctx, req, ch)
	return args.Error(0)
}

func (m *MockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}
