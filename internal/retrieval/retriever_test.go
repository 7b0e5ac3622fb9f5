package retrieval_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"portfolio-chat/backend/internal/retrieval"
	"portfolio-chat/backend/internal/vectorstore"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

type fakeSearcher struct {
	chunks []vectorstore.Chunk
	err    error

	gotThreshold float64
	gotCount     int
}

func (f *fakeSearcher) Search(ctx context.Context, embedding []float32, threshold float64, count int) ([]vectorstore.Chunk, error) {
	f.gotThreshold = threshold
	f.gotCount = count
	return f.chunks, f.err
}

func TestRetriever_Retrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("formats matched chunks in store order", func(t *testing.T) {
		store := &fakeSearcher{chunks: []vectorstore.Chunk{
			{Title: "Education", Content: "Studied fluid dynamics.", Similarity: 0.81},
			{Title: "Projects", Content: "Built a chat assistant.", Similarity: 0.75},
		}}
		r := retrieval.NewRetriever(&fakeEmbedder{vector: []float32{0.1}}, store)

		block := r.Retrieve(ctx, "background")

		assert.Contains(t, block, "--- Education ---\nStudied fluid dynamics.\n\n")
		assert.Contains(t, block, "--- Projects ---\nBuilt a chat assistant.\n\n")
		assert.Less(t, strings.Index(block, "Education"), strings.Index(block, "Projects"))
		assert.Equal(t, 0.70, store.gotThreshold)
		assert.Equal(t, 3, store.gotCount)
	})

	t.Run("embedding failure degrades to empty context", func(t *testing.T) {
		r := retrieval.NewRetriever(&fakeEmbedder{err: errors.New("boom")}, &fakeSearcher{})
		assert.Empty(t, r.Retrieve(ctx, "anything"))
	})

	t.Run("store failure degrades to empty context", func(t *testing.T) {
		r := retrieval.NewRetriever(&fakeEmbedder{vector: []float32{0.1}}, &fakeSearcher{err: errors.New("down")})
		assert.Empty(t, r.Retrieve(ctx, "anything"))
	})

	t.Run("zero matches degrade to empty context", func(t *testing.T) {
		r := retrieval.NewRetriever(&fakeEmbedder{vector: []float32{0.1}}, &fakeSearcher{})
		assert.Empty(t, r.Retrieve(ctx, "anything"))
	})
}
