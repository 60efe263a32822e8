package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultVectorDataDir  = "./data"
	defaultScoreThreshold = 0.25
	defaultChatTimeout    = 10 * time.Second
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	openaiKey := os.Getenv("OPENAI_API_KEY")
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	databaseURL := os.Getenv("DATABASE_URL")
	environment := os.Getenv("ENVIRONMENT")

	if openaiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	if anthropicKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
	}

	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if environment == "" {
		environment = "development"
	}

	vectorDataDir := os.Getenv("VECTOR_DATA_DIR")
	if vectorDataDir == "" {
		vectorDataDir = defaultVectorDataDir
	}

	scoreThreshold := float32(defaultScoreThreshold)
	if thresholdStr := os.Getenv("SCORE_THRESHOLD"); thresholdStr != "" {
		if val, err := strconv.ParseFloat(thresholdStr, 32); err == nil {
			scoreThreshold = float32(val)
		}
	}

	chatTimeout := defaultChatTimeout
	if timeoutStr := os.Getenv("CHAT_TIMEOUT"); timeoutStr != "" {
		if val, err := time.ParseDuration(timeoutStr); err == nil {
			chatTimeout = val
		}
	}

	return &Config{
		OpenAIKey:      openaiKey,
		AnthropicKey:   anthropicKey,
		DatabaseURL:    databaseURL,
		VectorDataDir:  vectorDataDir,
		ScoreThreshold: scoreThreshold,
		ChatTimeout:    chatTimeout,
		Environment:    environment,
	}, nil
}
