package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"portfolio-chat/backend/internal/vectorstore"
)

const (
	matchThreshold = 0.70
	matchCount     = 3

	contextHeader = "RELEVANT INFORMATION ABOUT THE PORTFOLIO OWNER:\n\n"
)

// Embedder computes a query embedding. Satisfied by llm.Provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever builds the context block for a query from the top-matching
// knowledge chunks. It never fails: any error in the embedding call or the
// store query degrades to an empty context, because the absence of context
// must never abort the chat.
type Retriever struct {
	embedder Embedder
	store    vectorstore.Searcher
}

func NewRetriever(embedder Embedder, store vectorstore.Searcher) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) string {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("Could not embed query, continuing without context", "error", err)
		return ""
	}

	chunks, err := r.store.Search(ctx, embedding, matchThreshold, matchCount)
	if err != nil {
		slog.Warn("Vector store query failed, continuing without context", "error", err)
		return ""
	}
	if len(chunks) == 0 {
		slog.Debug("No relevant context found", "query", query)
		return ""
	}

	titles := make([]string, len(chunks))
	var b strings.Builder
	b.WriteString(contextHeader)
	for i, chunk := range chunks {
		titles[i] = chunk.Title
		fmt.Fprintf(&b, "--- %s ---\n%s\n\n", chunk.Title, chunk.Content)
	}

	slog.Info("Found relevant context", "titles", titles)
	return b.String()
}
