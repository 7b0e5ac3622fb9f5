package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCSearcher_Search(t *testing.T) {
	t.Run("sends the RPC payload and decodes ordered chunks", func(t *testing.T) {
		var capturedPath string
		var capturedReq matchRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&capturedReq))
			require.Equal(t, "secret", r.Header.Get("apikey"))

			w.Header().Set("Content-Type", "application/json")
			_, err := w.Write([]byte(`[
				{"id":1,"title":"Education","content":"Studied things.","source":"bio","similarity":0.81},
				{"id":2,"title":"Projects","content":"Built things.","source":"bio","similarity":0.75}
			]`))
			assert.NoError(t, err)
		}))
		defer server.Close()

		searcher := NewRPCSearcher(server.URL, "secret")

		chunks, err := searcher.Search(context.Background(), []float32{0.5, 0.5}, 0.70, 3)
		require.NoError(t, err)

		require.Len(t, chunks, 2)
		assert.Equal(t, "Education", chunks[0].Title)
		assert.Equal(t, "Projects", chunks[1].Title)
		assert.Equal(t, "/rest/v1/rpc/match_documents", capturedPath)
		assert.Equal(t, 0.70, capturedReq.MatchThreshold)
		assert.Equal(t, 3, capturedReq.MatchCount)
		assert.Equal(t, []float32{0.5, 0.5}, capturedReq.QueryEmbedding)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		searcher := NewRPCSearcher(server.URL, "secret")

		_, err := searcher.Search(context.Background(), []float32{0.5}, 0.70, 3)
		assert.Error(t, err)
	})
}
