package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	app_errors "portfolio-chat/backend/internal/errors"
	"portfolio-chat/backend/internal/llm"
)

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondWithError maps business-layer errors to HTTP status codes and
// writes a standard JSON error body. Upstream provider failures keep their
// original status code and message; everything unrecognized becomes a 500.
func respondWithError(w http.ResponseWriter, err error) {
	var statusCode int
	var message string

	var statusErr *llm.StatusError
	switch {
	case errors.Is(err, app_errors.ErrValidation):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, app_errors.ErrUnconfigured):
		statusCode = http.StatusInternalServerError
		message = "The model provider API key is not configured."
	case errors.Is(err, app_errors.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "The requested resource was not found."
	case errors.As(err, &statusErr):
		statusCode = statusErr.StatusCode
		message = statusErr.Message
	default:
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal server error occurred."
	}

	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)

	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondWithJSON marshals a payload and writes it with the given status.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}
