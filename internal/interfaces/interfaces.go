package interfaces

import (
	"context"

	"portfolio-chat/backend/internal/model"
	"portfolio-chat/backend/internal/service"
)

// ChatService defines the contract the API layer depends on. Depending on
// the interface instead of the concrete service keeps handlers mockable.
type ChatService interface {
	StreamCompletion(ctx context.Context, req *service.CompletionRequest, ch chan<- model.StreamResponse)
	ListConversations(ctx context.Context) ([]*model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
}
