package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-chat/backend/internal/model"
	"portfolio-chat/backend/internal/repository"
)

func setupRepo(t *testing.T) (repository.Repository, sqlmock.Sqlmock) {
	db, mockDB, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewSQLiteRepository(db), mockDB
}

func TestSQLiteRepository_SaveConversation(t *testing.T) {
	ctx := context.Background()
	conv := &model.Conversation{
		ID:        "conv1",
		Title:     "First conversation",
		CreatedAt: time.Now().UTC(),
		Messages: []model.Message{
			{ID: "m1", Role: model.RoleUser, Content: "hello"},
			{ID: "m2", Role: model.RoleAssistant, Content: "hi"},
		},
	}

	t.Run("Success", func(t *testing.T) {
		repo, mockDB := setupRepo(t)

		mockDB.ExpectBegin()
		mockDB.ExpectExec("INSERT INTO conversations").
			WithArgs(conv.ID, conv.Title, conv.CreatedAt, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mockDB.ExpectExec("DELETE FROM messages").
			WithArgs(conv.ID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mockDB.ExpectExec("INSERT INTO messages").
			WithArgs("m1", conv.ID, model.RoleUser, "hello", 0).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mockDB.ExpectExec("INSERT INTO messages").
			WithArgs("m2", conv.ID, model.RoleAssistant, "hi", 1).
			WillReturnResult(sqlmock.NewResult(2, 1))
		mockDB.ExpectCommit()

		require.NoError(t, repo.SaveConversation(ctx, conv))
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Failure - insert error rolls back", func(t *testing.T) {
		repo, mockDB := setupRepo(t)

		mockDB.ExpectBegin()
		mockDB.ExpectExec("INSERT INTO conversations").
			WillReturnError(errors.New("db error"))
		mockDB.ExpectRollback()

		assert.Error(t, repo.SaveConversation(ctx, conv))
		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestSQLiteRepository_GetConversation(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mockDB := setupRepo(t)
		now := time.Now().UTC()

		mockDB.ExpectQuery("SELECT id, title, created_at, updated_at FROM conversations").
			WithArgs("conv1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "created_at", "updated_at"}).
				AddRow("conv1", "First conversation", now, now))
		mockDB.ExpectQuery("SELECT id, role, content FROM messages").
			WithArgs("conv1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "role", "content"}).
				AddRow("m1", model.RoleUser, "hello").
				AddRow("m2", model.RoleAssistant, "hi"))

		conv, err := repo.GetConversation(ctx, "conv1")
		require.NoError(t, err)
		assert.Equal(t, "First conversation", conv.Title)
		require.Len(t, conv.Messages, 2)
		assert.Equal(t, "hello", conv.Messages[0].Content)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Failure - unknown id maps to ErrNotFound", func(t *testing.T) {
		repo, mockDB := setupRepo(t)

		mockDB.ExpectQuery("SELECT id, title, created_at, updated_at FROM conversations").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "created_at", "updated_at"}))

		_, err := repo.GetConversation(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Failure - wrapped ErrNoRows still maps to ErrNotFound", func(t *testing.T) {
		repo, mockDB := setupRepo(t)

		mockDB.ExpectQuery("SELECT id, title, created_at, updated_at FROM conversations").
			WithArgs("missing").
			WillReturnError(fmt.Errorf("scan row: %w", sql.ErrNoRows))

		_, err := repo.GetConversation(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestSQLiteRepository_ListConversations(t *testing.T) {
	repo, mockDB := setupRepo(t)
	now := time.Now().UTC()

	mockDB.ExpectQuery("SELECT id, title, created_at, updated_at FROM conversations ORDER BY updated_at DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "created_at", "updated_at"}).
			AddRow("conv2", "Newer", now, now).
			AddRow("conv1", "Older", now.Add(-time.Hour), now.Add(-time.Hour)))

	convs, err := repo.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "Newer", convs[0].Title)
	require.NoError(t, mockDB.ExpectationsWereMet())
}
