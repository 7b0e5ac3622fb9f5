package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
)

// SQLiteStore is a local vector store backed by SQLite with the sqlite-vec
// extension. It implements Searcher with a vec_distance_cosine scan over the
// knowledge_chunks table and exposes an upsert path so the knowledge base
// can be populated in place.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	schema := `
		CREATE TABLE IF NOT EXISTS knowledge_chunks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			embedding BLOB NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_knowledge_chunks_title ON knowledge_chunks(title);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create knowledge_chunks table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Search(ctx context.Context, embedding []float32, threshold float64, count int) ([]Chunk, error) {
	if count <= 0 {
		count = 3
	}

	query := `
		SELECT id, title, content, source,
			vec_distance_cosine(embedding, ?) AS distance
		FROM knowledge_chunks
		ORDER BY distance ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, encodeFloat32Blob(embedding), count)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var chunk Chunk
		var distance float64
		if err := rows.Scan(&chunk.ID, &chunk.Title, &chunk.Content, &chunk.Source, &distance); err != nil {
			return nil, err
		}

		// Cosine distance is 1 - similarity.
		chunk.Similarity = 1.0 - distance
		if chunk.Similarity < threshold {
			continue
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// UpsertChunk inserts or replaces a knowledge chunk keyed by title.
func (s *SQLiteStore) UpsertChunk(ctx context.Context, title, content, source string, embedding []float32) error {
	query := `
		INSERT INTO knowledge_chunks (title, content, source, embedding)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET content = excluded.content, source = excluded.source, embedding = excluded.embedding
	`
	_, err := s.db.ExecContext(ctx, query, title, content, source, encodeFloat32Blob(embedding))
	return err
}

// encodeFloat32Blob serializes a vector in the little-endian float32 layout
// sqlite-vec expects.
func encodeFloat32Blob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}
