package config

import "time"

type Config struct {
	OpenAIKey      string
	AnthropicKey   string
	DatabaseURL    string
	VectorDataDir  string
	ScoreThreshold float32
	ChatTimeout    time.Duration
	Environment    string
}

type IndexerFlags struct {
	Reset   bool
	Timeout time.Duration
}
