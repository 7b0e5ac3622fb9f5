package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"portfolio-chat/backend/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

// SaveConversation runs in a transaction: the metadata upsert and the
// transcript replacement must land together.
func (r *sqliteRepository) SaveConversation(ctx context.Context, conv *model.Conversation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO conversations (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, upsert, conv.ID, conv.Title, conv.CreatedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("could not upsert conversation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = ?", conv.ID); err != nil {
		return fmt.Errorf("could not clear transcript: %w", err)
	}

	insert := "INSERT INTO messages (id, conversation_id, role, content, position) VALUES (?, ?, ?, ?, ?)"
	for i, msg := range conv.Messages {
		if _, err := tx.ExecContext(ctx, insert, msg.ID, conv.ID, msg.Role, msg.Content, i); err != nil {
			return fmt.Errorf("could not insert message: %w", err)
		}
	}

	return tx.Commit()
}

func (r *sqliteRepository) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	query := "SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?"
	row := r.db.QueryRowContext(ctx, query, id)

	var conv model.Conversation
	if err := row.Scan(&conv.ID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, role, content FROM messages WHERE conversation_id = ? ORDER BY position ASC", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content); err != nil {
			return nil, err
		}
		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *sqliteRepository) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	query := "SELECT id, title, created_at, updated_at FROM conversations ORDER BY updated_at DESC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []*model.Conversation
	for rows.Next() {
		var conv model.Conversation
		if err := rows.Scan(&conv.ID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, &conv)
	}
	return convs, rows.Err()
}
