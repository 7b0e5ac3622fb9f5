package config

import (
	"strings"

	"github.com/spf13/viper"
)

// DefaultSystemPrompt is the persona used when SYSTEM_PROMPT is not set.
// The retrieved context block is appended to it by the prompt assembler.
const DefaultSystemPrompt = `You are PortfolioGPT, a friendly personal AI assistant for the owner of this portfolio site. Your goal is to have natural, conversational interactions while sharing information about the owner.

Guidelines:
1. Be warm and conversational - write like you are chatting with a friend.
2. Share information naturally as part of a dialogue and draw connections between different parts of the owner's background.
3. Structure responses with short paragraphs, headings for main topics and bullet points for lists.
4. If you do not have specific information, say "I don't have specific information about that in my knowledge base." while staying helpful.

Always respond in first person, as if you are the owner of the portfolio.`

type Config struct {
	AppPort        int    `mapstructure:"APP_PORT"`
	DatabasePath   string `mapstructure:"DATABASE_PATH"`
	OpenAIAPIKey   string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `mapstructure:"OPENAI_BASE_URL"`
	ChatModel      string `mapstructure:"CHAT_MODEL"`
	EmbeddingModel string `mapstructure:"EMBEDDING_MODEL"`
	VectorBackend  string `mapstructure:"VECTOR_BACKEND"`
	VectorStoreURL string `mapstructure:"VECTOR_STORE_URL"`
	VectorStoreKey string `mapstructure:"VECTOR_STORE_KEY"`
	SystemPrompt   string `mapstructure:"SYSTEM_PROMPT"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("DATABASE_PATH", "./data/portfolio.db")
	viper.SetDefault("OPENAI_API_KEY", "")
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com")
	viper.SetDefault("CHAT_MODEL", "gpt-3.5-turbo")
	viper.SetDefault("EMBEDDING_MODEL", "text-embedding-ada-002")
	viper.SetDefault("VECTOR_BACKEND", "sqlite")
	viper.SetDefault("VECTOR_STORE_URL", "")
	viper.SetDefault("VECTOR_STORE_KEY", "")
	viper.SetDefault("SYSTEM_PROMPT", DefaultSystemPrompt)
	viper.SetDefault("LOG_LEVEL", "INFO")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
