package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	app_errors "portfolio-chat/backend/internal/errors"
	"portfolio-chat/backend/internal/llm"
	"portfolio-chat/backend/internal/model"
	"portfolio-chat/backend/internal/prompt"
	"portfolio-chat/backend/internal/repository"
	"portfolio-chat/backend/internal/retrieval"
)

const defaultTemperature = 0.7

// CompletionRequest is the payload of a streaming completion call.
type CompletionRequest struct {
	Messages    []model.Message
	Model       string
	Temperature *float64
	MaxTokens   int
}

// ChatService runs the retrieval-augmented completion pipeline: the last
// user message becomes the retrieval query, the assembler builds the prompt
// and the provider streams the answer back through a channel.
type ChatService struct {
	provider     llm.Provider
	retriever    *retrieval.Retriever
	assembler    *prompt.Assembler
	repo         repository.Repository
	defaultModel string
	configured   bool
}

func NewChatService(provider llm.Provider, retriever *retrieval.Retriever, assembler *prompt.Assembler, repo repository.Repository, defaultModel string, configured bool) *ChatService {
	return &ChatService{
		provider:     provider,
		retriever:    retriever,
		assembler:    assembler,
		repo:         repo,
		defaultModel: defaultModel,
		configured:   configured,
	}
}

// StreamCompletion streams the completion for req into ch and closes it.
// Failures are delivered as a chunk with Err set; whether that becomes a
// structured HTTP error or a connection abort is the transport's decision.
// Every send is guarded by ctx so a consumer that stops reading (client
// disconnect) cannot strand this goroutine on a blocked channel.
func (s *ChatService) StreamCompletion(ctx context.Context, req *CompletionRequest, ch chan<- model.StreamResponse) {
	defer close(ch)

	if !s.configured {
		send(ctx, ch, model.StreamResponse{Err: app_errors.ErrUnconfigured})
		return
	}
	if len(req.Messages) == 0 {
		send(ctx, ch, model.StreamResponse{Err: fmt.Errorf("%w: messages must not be empty", app_errors.ErrValidation)})
		return
	}

	query := req.Messages[len(req.Messages)-1].Content
	contextBlock := s.retriever.Retrieve(ctx, query)
	messages := s.assembler.Assemble(req.Messages, contextBlock)

	modelName := req.Model
	if modelName == "" {
		modelName = s.defaultModel
	}
	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	llmReq := &llm.ChatRequest{
		Model:       modelName,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	}

	llmCh := make(chan llm.StreamDelta)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.provider.ChatStream(ctx, llmReq, llmCh)
	}()

	for delta := range llmCh {
		if delta.Content == "" {
			continue
		}
		if !send(ctx, ch, model.StreamResponse{Content: delta.Content}) {
			// The consumer is gone; the provider goroutine unwinds through
			// the same ctx and errCh is buffered, so nothing else blocks.
			slog.Debug("Consumer went away mid-stream", "model", modelName)
			return
		}
	}

	if err := <-errCh; err != nil {
		slog.Warn("Completion stream failed", "model", modelName, "error", err)
		send(ctx, ch, model.StreamResponse{Err: err})
		return
	}

	slog.Debug("Completion stream finished", "model", modelName)
	send(ctx, ch, model.StreamResponse{Done: true})
}

// send delivers one chunk unless ctx has been canceled. It reports whether
// the chunk was accepted.
func send(ctx context.Context, ch chan<- model.StreamResponse, resp model.StreamResponse) bool {
	select {
	case ch <- resp:
		return true
	case <-ctx.Done():
		return false
	}
}

// ListConversations returns stored conversation metadata.
func (s *ChatService) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	return s.repo.ListConversations(ctx)
}

// GetConversation returns a stored conversation with its transcript.
func (s *ChatService) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, app_errors.ErrNotFound
		}
		return nil, err
	}
	return conv, nil
}
