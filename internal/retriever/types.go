package retriever

import (
	"context"
	"errors"

	"codeberg.org/campusfind/server/internal/llm"
	"codeberg.org/campusfind/server/internal/vectorindex"
)

// ErrEmbedding marks a failure to embed the user query; the index itself was
// never consulted.
var ErrEmbedding = errors.New("query embedding failed")

// the slice of the vector index the retriever needs
type SearchIndex interface {
	Search(ctx context.Context, queryVector []float32, k int, minScore float32) ([]vectorindex.SearchResult, error)
}

// Service runs the chat retrieval pipeline: plan, embed, search, rank,
// summarize.
type Service struct {
	index          SearchIndex
	embedder       llm.Embedder
	generator      llm.TextGenerator
	scoreThreshold float32
}

// Match is one ranked facility in a chat answer.
type Match struct {
	FacilityID int64
	Name       string
	Type       string
	Building   string
	Score      float32
}

// Result is the full outcome of one chat turn.
type Result struct {
	Summary    string
	Matches    []Match
	TotalFound int
	Query      string // normalized, context-folded query that was embedded
}

func NewService(index SearchIndex, embedder llm.Embedder, generator llm.TextGenerator, scoreThreshold float32) *Service {
	return &Service{
		index:          index,
		embedder:       embedder,
		generator:      generator,
		scoreThreshold: scoreThreshold,
	}
}
