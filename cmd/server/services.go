package main

import (
	"context"
	"fmt"
	"path/filepath"

	"codeberg.org/campusfind/server/internal/config"
	"codeberg.org/campusfind/server/internal/llm"
	"codeberg.org/campusfind/server/internal/retriever"
	"codeberg.org/campusfind/server/internal/vectorindex"
)

// name of the index database file inside the vector data directory
const indexFileName = "facilities.db"

// creates and configures all service clients
func InitializeServices(ctx context.Context, cfg *config.Config) (*Services, *vectorindex.Index, error) {
	llmClient, err := llm.NewLLM(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	index, err := vectorindex.Open(ctx, filepath.Join(cfg.VectorDataDir, indexFileName), llmClient)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open vector index: %w", err)
	}

	retrieverSvc := retriever.NewService(index, llmClient, llmClient, cfg.ScoreThreshold)

	return &Services{
		LLM:       llmClient,
		Retriever: retrieverSvc,
	}, index, nil
}
