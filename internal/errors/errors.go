package errors

import "errors"

// This package defines a centralized set of sentinel errors for the
// application. Services return these without knowing about HTTP; the API
// layer maps them to status codes with errors.Is.

var (
	// ErrValidation signifies that input data provided by a client failed
	// validation. Mapped to 400 Bad Request.
	ErrValidation = errors.New("validation failed")

	// ErrUnconfigured signifies that a required credential (the model
	// provider API key) is missing. Mapped to 500 Internal Server Error.
	ErrUnconfigured = errors.New("model provider is not configured")

	// ErrNotFound signifies that a requested resource could not be located.
	// Mapped to 404 Not Found.
	ErrNotFound = errors.New("resource not found")

	// ErrInternal signifies an unexpected server-side error. Used to avoid
	// leaking implementation details to the client. Mapped to 500.
	ErrInternal = errors.New("internal server error")
)
