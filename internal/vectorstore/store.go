package vectorstore

import "context"

// Chunk is one knowledge-base entry returned by a similarity search.
type Chunk struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
}

// Searcher is the vector-store query collaborator. Implementations return
// chunks whose similarity to the query embedding is at least threshold,
// ordered by descending similarity, at most count entries.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, threshold float64, count int) ([]Chunk, error)
}
