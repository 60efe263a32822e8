package retriever

import (
	"context"
	"fmt"

	"codeberg.org/campusfind/server/internal/llm"
	"codeberg.org/campusfind/server/internal/logger"
	"codeberg.org/campusfind/server/internal/planner"
)

const (
	// transient embedding failures get one retry before the turn fails
	embedAttempts = 2

	// candidates fetched per result slot so threshold filtering and
	// deduplication still leave enough to fill the answer
	overFetchFactor = 3
	overFetchFloor  = 10
)

// Retrieve answers one chat turn. The message is planned into a query,
// embedded, and searched against the active index generation; the ranked
// matches are then summarized into a conversational reply. A never-built
// index surfaces vectorindex.ErrNotBuilt unchanged so the handler can say
// the index is not ready rather than that nothing matched.
func (s *Service) Retrieve(ctx context.Context, message string, history []llm.Message, maxResults int) (*Result, error) {
	plan := planner.Build(message, history, maxResults)

	queryVector, err := s.embedQuery(ctx, plan.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	overFetch := max(plan.TopK*overFetchFactor, overFetchFloor)

	candidates, err := s.index.Search(ctx, queryVector, overFetch, s.scoreThreshold)
	if err != nil {
		return nil, err
	}

	matches := rank(candidates, plan.TopK)

	result := &Result{
		Matches:    matches,
		TotalFound: len(matches),
		Query:      plan.Query,
	}

	result.Summary = s.summarize(ctx, plan.Query, matches, history)

	return result, nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	var lastErr error

	for attempt := 1; attempt <= embedAttempts; attempt++ {
		vector, err := s.embedder.GenerateEmbedding(ctx, query)
		if err == nil {
			return vector, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return nil, lastErr
		}

		if attempt < embedAttempts {
			logger.Warn("retrying query embedding", "attempt", attempt, "error", err)
		}
	}

	return nil, lastErr
}
