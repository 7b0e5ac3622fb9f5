package repository

import (
	"context"

	"portfolio-chat/backend/internal/model"
)

// Repository defines the interface for conversation persistence.
// This interface makes it easy to switch database implementations.
type Repository interface {
	// SaveConversation upserts the conversation metadata and replaces its
	// transcript wholesale with the given ordered messages.
	SaveConversation(ctx context.Context, conv *model.Conversation) error

	// GetConversation returns the conversation with its full transcript,
	// or ErrNotFound.
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)

	// ListConversations returns conversation metadata (no messages),
	// most recently updated first.
	ListConversations(ctx context.Context) ([]*model.Conversation, error)
}
