package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// rpcSearcher queries a remote vector store through a single RPC-shaped
// endpoint (a PostgREST `match_documents` function).
type rpcSearcher struct {
	client *http.Client
	url    string
	apiKey string
}

func NewRPCSearcher(url, apiKey string) Searcher {
	return &rpcSearcher{
		client: &http.Client{},
		url:    strings.TrimRight(url, "/"),
		apiKey: apiKey,
	}
}

type matchRequest struct {
	QueryEmbedding []float32 `json:"query_embedding"`
	MatchThreshold float64   `json:"match_threshold"`
	MatchCount     int       `json:"match_count"`
}

func (s *rpcSearcher) Search(ctx context.Context, embedding []float32, threshold float64, count int) ([]Chunk, error) {
	body, err := json.Marshal(matchRequest{
		QueryEmbedding: embedding,
		MatchThreshold: threshold,
		MatchCount:     count,
	})
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/rest/v1/rpc/match_documents", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("apikey", s.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vector store returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var chunks []Chunk
	if err := json.NewDecoder(resp.Body).Decode(&chunks); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	return chunks, nil
}
