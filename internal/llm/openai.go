package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Message is a single prompt entry in the model's role vocabulary.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest carries the assembled messages plus generation options.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

// StreamDelta is one incremental text delta from a streaming completion.
type StreamDelta struct {
	Content string
	Done    bool
}

// StatusError preserves the upstream HTTP status so the API layer can
// forward it on pre-stream failures.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}

// Provider defines the interface for the model-generation and embedding
// collaborators.
type Provider interface {
	// ChatStream streams incremental deltas into ch and closes it when the
	// upstream signals completion. A non-nil return means the call failed
	// before or during the stream; deltas already sent remain valid.
	ChatStream(ctx context.Context, req *ChatRequest, ch chan<- StreamDelta) error

	// Embed returns a fixed-dimension vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

type openAIProvider struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	embedModel string
}

func NewOpenAIProvider(baseURL, apiKey, embedModel string) Provider {
	return &openAIProvider{
		client:     &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		embedModel: embedModel,
	}
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *openAIProvider) ChatStream(ctx context.Context, req *ChatRequest, ch chan<- StreamDelta) error {
	defer close(ch)

	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return p.statusError(resp)
	}

	// The completions API streams Server-Sent Events: each payload line is
	// "data: {json}", with a literal "data: [DONE]" terminator.
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return fmt.Errorf("could not decode stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := StreamDelta{Content: chunk.Choices[0].Delta.Content}
		if chunk.Choices[0].FinishReason != nil {
			delta.Done = true
		}

		select {
		case ch <- delta:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *openAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: p.embedModel, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/embeddings", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.statusError(resp)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}
	return result.Data[0].Embedding, nil
}

// statusError reads a failed response body and carries the upstream status
// and message back to the caller.
func (p *openAIProvider) statusError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiErr apiErrorBody
	if err := json.Unmarshal(bodyBytes, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &StatusError{StatusCode: resp.StatusCode, Message: apiErr.Error.Message}
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
}
