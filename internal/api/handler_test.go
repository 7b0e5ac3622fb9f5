// The `_test` suffix creates a "black box" test package: only the exported
// surface of the api package is exercised.
package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"portfolio-chat/backend/internal/api"
	app_errors "portfolio-chat/backend/internal/errors"
	"portfolio-chat/backend/internal/interfaces/mocks"
	"portfolio-chat/backend/internal/llm"
	"portfolio-chat/backend/internal/model"
)

func setupChatHandler(t *testing.T) (*api.ChatHandler, *mocks.MockChatService) {
	mockSvc := mocks.NewMockChatService(t)
	return api.NewChatHandler(mockSvc), mockSvc
}

// addChiURLParams simulates how the chi router injects URL parameters into
// the request context.
func addChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for key, value := range params {
		chiCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

func TestChatHandler_HandleChatStream(t *testing.T) {
	t.Run("streams chunks as plain text", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)

		mockSvc.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				ch := args.Get(2).(chan<- model.StreamResponse)
				ch <- model.StreamResponse{Content: "Hel"}
				ch <- model.StreamResponse{Content: "lo!"}
				ch <- model.StreamResponse{Done: true}
				close(ch)
			}).Once()

		body := `{"messages":[{"id":"m1","role":"user","content":"hi"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
		rr := httptest.NewRecorder()
		handler.HandleChatStream(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
		assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))
		assert.Equal(t, "Hello!", rr.Body.String())
	})

	t.Run("missing messages is a 400", func(t *testing.T) {
		handler, _ := setupChatHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
		rr := httptest.NewRecorder()
		handler.HandleChatStream(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var errResp api.ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
		assert.NotEmpty(t, errResp.Error)
	})

	t.Run("empty messages array is a 400", func(t *testing.T) {
		handler, _ := setupChatHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[]}`))
		rr := httptest.NewRecorder()
		handler.HandleChatStream(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed JSON is a 400", func(t *testing.T) {
		handler, _ := setupChatHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{not json`))
		rr := httptest.NewRecorder()
		handler.HandleChatStream(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unconfigured provider is a 500 JSON error", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)

		mockSvc.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				ch := args.Get(2).(chan<- model.StreamResponse)
				ch <- model.StreamResponse{Err: app_errors.ErrUnconfigured}
				close(ch)
			}).Once()

		body := `{"messages":[{"id":"m1","role":"user","content":"hi"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
		rr := httptest.NewRecorder()
		handler.HandleChatStream(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	})

	t.Run("pre-stream upstream failure keeps the upstream status", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)

		mockSvc.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				ch := args.Get(2).(chan<- model.StreamResponse)
				ch <- model.StreamResponse{Err: &llm.StatusError{StatusCode: 429, Message: "rate limited"}}
				close(ch)
			}).Once()

		body := `{"messages":[{"id":"m1","role":"user","content":"hi"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
		rr := httptest.NewRecorder()
		handler.HandleChatStream(rr, req)

		assert.Equal(t, http.StatusTooManyRequests, rr.Code)

		var errResp api.ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
		assert.Equal(t, "rate limited", errResp.Error)
	})

	t.Run("mid-stream failure aborts the connection", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)

		mockSvc.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				ch := args.Get(2).(chan<- model.StreamResponse)
				ch <- model.StreamResponse{Content: "partial"}
				ch <- model.StreamResponse{Err: &llm.StatusError{StatusCode: 500, Message: "upstream died"}}
				close(ch)
			}).Once()

		body := `{"messages":[{"id":"m1","role":"user","content":"hi"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
		rr := httptest.NewRecorder()

		// Once bytes are on the wire the handler aborts the connection; at
		// the handler level that surfaces as http.ErrAbortHandler.
		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			handler.HandleChatStream(rr, req)
		})
		assert.Equal(t, "partial", rr.Body.String())
	})
}

func TestChatHandler_HandleListConversations(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)

		convs := []*model.Conversation{{ID: "c1", Title: "First"}}
		mockSvc.On("ListConversations", mock.Anything).Return(convs, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
		rr := httptest.NewRecorder()
		handler.HandleListConversations(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var got []model.Conversation
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "First", got[0].Title)
	})

	t.Run("Failure maps to 500", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)

		mockSvc.On("ListConversations", mock.Anything).Return(nil, app_errors.ErrInternal).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
		rr := httptest.NewRecorder()
		handler.HandleListConversations(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestChatHandler_HandleGetConversation(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)

		conv := &model.Conversation{ID: "c1", Title: "First", Messages: []model.Message{{ID: "m1", Role: model.RoleUser, Content: "hi"}}}
		mockSvc.On("GetConversation", mock.Anything, "c1").Return(conv, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/conversations/c1", nil)
		req = addChiURLParams(req, map[string]string{"conversationID": "c1"})
		rr := httptest.NewRecorder()
		handler.HandleGetConversation(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Unknown id is a 404", func(t *testing.T) {
		handler, mockSvc := setupChatHandler(t)

		mockSvc.On("GetConversation", mock.Anything, "missing").Return(nil, app_errors.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/conversations/missing", nil)
		req = addChiURLParams(req, map[string]string{"conversationID": "missing"})
		rr := httptest.NewRecorder()
		handler.HandleGetConversation(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
