package model

import "time"

// Message roles accepted by the pipeline. Anything else is coerced to
// RoleUser before the prompt is assembled.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single entry in a conversation transcript.
type Message struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`

	// IsStreaming marks the one in-flight assistant message whose content is
	// still mutable. It is presentation state and is never persisted.
	IsStreaming bool `json:"-"`
}

// Conversation stores metadata about a chat plus its ordered transcript.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages,omitempty"`
}

// StreamResponse is a single chunk of a streaming completion as it moves
// between the chat service and the HTTP layer. Err is carried out-of-band
// and never reaches the wire as chunk content.
type StreamResponse struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
	Err     error  `json:"-"`
}
