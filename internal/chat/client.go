package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"portfolio-chat/backend/internal/model"
)

// HTTPStreamClient talks to the completion stream proxy over HTTP,
// forwarding each received body chunk as a delta.
type HTTPStreamClient struct {
	client  *http.Client
	baseURL string
}

func NewHTTPStreamClient(baseURL string) *HTTPStreamClient {
	return &HTTPStreamClient{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type chatStreamBody struct {
	Messages    []model.Message `json:"messages"`
	Model       string          `json:"model,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

func (c *HTTPStreamClient) Stream(ctx context.Context, messages []model.Message, opts ChatOptions, onDelta func(string)) error {
	body, err := json.Marshal(chatStreamBody{
		Messages:    messages,
		Model:       opts.Model,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil && errBody.Error != "" {
			return fmt.Errorf("chat request failed with status %d: %s", resp.StatusCode, errBody.Error)
		}
		return fmt.Errorf("chat request failed with status %d", resp.StatusCode)
	}

	// Raw text chunks, applied in arrival order.
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			onDelta(string(buf[:n]))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// Reads fail with the context error once the request is
			// cancelled; surface that so the machine can tell an abort
			// apart from a transport failure.
			if ctx.Err() != nil {
				return fmt.Errorf("stream cancelled: %w", context.Canceled)
			}
			return fmt.Errorf("stream read failed: %w", err)
		}
	}
}
