package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	app_errors "portfolio-chat/backend/internal/errors"
	"portfolio-chat/backend/internal/interfaces"
	"portfolio-chat/backend/internal/model"
	"portfolio-chat/backend/internal/service"
)

// ChatHandler handles the streaming chat endpoint and the conversation
// read endpoints.
type ChatHandler struct {
	service interfaces.ChatService
}

func NewChatHandler(svc interfaces.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// ChatStreamRequest is the request body of POST /api/chat.
type ChatStreamRequest struct {
	Messages    []model.Message `json:"messages" validate:"required,min=1"`
	Model       string          `json:"model,omitempty"`
	Temperature *float64        `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   int             `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
}

// HandleChatStream streams raw completion text back as a chunked plain-text
// response. Failures before the first byte become a JSON error; once bytes
// have been sent there is no way to send a structured error, so a mid-stream
// failure aborts the connection instead.
func (h *ChatHandler) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	var req ChatStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, fmt.Errorf("%w: invalid request body", app_errors.ErrValidation))
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	requestID := middleware.GetReqID(r.Context())
	slog.Debug("Starting completion stream", "request_id", requestID, "messages", len(req.Messages))

	streamChan := make(chan model.StreamResponse)
	go h.service.StreamCompletion(r.Context(), &service.CompletionRequest{
		Messages:    req.Messages,
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, streamChan)

	flusher, _ := w.(http.Flusher)
	bytesSent := false

	for chunk := range streamChan {
		if r.Context().Err() != nil {
			slog.Info("Client disconnected.", "request_id", requestID)
			return
		}

		if chunk.Err != nil {
			if !bytesSent {
				respondWithError(w, chunk.Err)
				return
			}
			// Streaming already started: terminate the chunked response so
			// the client sees a transport-level failure.
			slog.Warn("Stream interrupted after bytes were sent", "request_id", requestID, "error", chunk.Err)
			panic(http.ErrAbortHandler)
		}

		if chunk.Done {
			break
		}
		if chunk.Content == "" {
			continue
		}

		if !bytesSent {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			bytesSent = true
		}

		if _, err := fmt.Fprint(w, chunk.Content); err != nil {
			slog.Warn("Could not write to stream, client likely disconnected.", "request_id", requestID, "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	// A stream that completed without producing any bytes still owes the
	// client a well-formed empty 200.
	if !bytesSent {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}

	slog.Debug("Finished streaming response.", "request_id", requestID)
}

// HandleListConversations returns stored conversation metadata.
func (h *ChatHandler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.service.ListConversations(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	if convs == nil {
		convs = []*model.Conversation{}
	}
	respondWithJSON(w, http.StatusOK, convs)
}

// HandleGetConversation returns one conversation with its transcript.
func (h *ChatHandler) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	conv, err := h.service.GetConversation(r.Context(), conversationID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, conv)
}
