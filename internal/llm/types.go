package llm

import "context"

// combines embedding generation and text generation
type LLM interface {
	Embedder
	TextGenerator
}

// represents different LLM providers
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// generates embeddings from text
//
// GenerateEmbeddings is atomic: it preserves input order and fails the whole
// batch if any item fails, so callers never see a partial embedding set.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// generates free text from a system prompt and conversation
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextGenerationRequest) (*TextGenerationResponse, error)
	Model() string
}

// conversation message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TextGenerationRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

type TextGenerationResponse struct {
	Text  string
	Usage Usage
}

// holds configuration for LLM initialization
type Config struct {
	// embedder configuration
	EmbedderProvider Provider
	EmbedderAPIKey   string
	EmbedderModel    string // e.g., "text-embedding-3-small"

	// generator configuration
	GeneratorProvider    Provider
	GeneratorAPIKey      string
	GeneratorModel       string // e.g., "claude-3-5-haiku-20241022"
	GeneratorMaxTokens   int
	GeneratorTemperature float32
}
