package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"portfolio-chat/backend/internal/api"
	"portfolio-chat/backend/internal/config"
	"portfolio-chat/backend/internal/database"
	"portfolio-chat/backend/internal/llm"
	"portfolio-chat/backend/internal/prompt"
	"portfolio-chat/backend/internal/repository"
	"portfolio-chat/backend/internal/retrieval"
	"portfolio-chat/backend/internal/service"
	"portfolio-chat/backend/internal/vectorstore"
)

// App holds the wired-up application so tests can inspect it without
// starting the listener.
type App struct {
	DB     *sql.DB
	Server *http.Server
}

// NewApp builds the dependency graph from the configuration.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Successfully connected to SQLite database.")

	repo := repository.NewSQLiteRepository(db)
	provider := llm.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel)

	store, err := newSearcher(cfg, db)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Failed to close database connection", "error", closeErr)
		}
		return nil, err
	}

	retriever := retrieval.NewRetriever(provider, store)
	assembler := prompt.NewAssembler(cfg.SystemPrompt)

	configured := cfg.OpenAIAPIKey != ""
	if !configured {
		slog.Warn("OPENAI_API_KEY is not set. Chat requests will be rejected until it is configured.")
	}

	chatService := service.NewChatService(provider, retriever, assembler, repo, cfg.ChatModel, configured)
	chatHandler := api.NewChatHandler(chatService)
	router := api.NewRouter(chatHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	return &App{DB: db, Server: server}, nil
}

func newSearcher(cfg *config.Config, db *sql.DB) (vectorstore.Searcher, error) {
	switch strings.ToLower(cfg.VectorBackend) {
	case "http":
		if cfg.VectorStoreURL == "" {
			return nil, errors.New("VECTOR_BACKEND=http requires VECTOR_STORE_URL")
		}
		slog.Info("Using remote vector store", "url", cfg.VectorStoreURL)
		return vectorstore.NewRPCSearcher(cfg.VectorStoreURL, cfg.VectorStoreKey), nil
	default:
		slog.Info("Using local SQLite vector store")
		return vectorstore.NewSQLiteStore(db)
	}
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)

	logConfigSource()

	application, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer func() {
		if err := application.DB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()

	slog.Info("Starting server", "port", cfg.AppPort)
	if err := application.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		return 1
	}

	return 0
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
