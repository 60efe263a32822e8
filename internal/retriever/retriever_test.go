package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/campusfind/server/internal/facilities"
	"codeberg.org/campusfind/server/internal/llm"
	"codeberg.org/campusfind/server/internal/vectorindex"
)

type fakeIndex struct {
	results []vectorindex.SearchResult
	err     error

	calls []int // k passed to each Search call
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, k int, _ float32) ([]vectorindex.SearchResult, error) {
	f.calls = append(f.calls, k)

	if f.err != nil {
		return nil, f.err
	}

	return f.results, nil
}

type fakeEmbedder struct {
	calls    int
	failures int // fail this many leading calls
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, _ string) ([]float32, error) {
	f.calls++

	if f.calls <= f.failures {
		return nil, errors.New("upstream embedding error")
	}

	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		vector, err := f.GenerateEmbedding(ctx, texts[i])
		if err != nil {
			return nil, err
		}

		out[i] = vector
	}

	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 3 }

type fakeGenerator struct {
	text  string
	err   error
	calls int

	lastPrompt string
}

func (f *fakeGenerator) GenerateText(_ context.Context, req llm.TextGenerationRequest) (*llm.TextGenerationResponse, error) {
	f.calls++
	f.lastPrompt = req.SystemPrompt

	if f.err != nil {
		return nil, f.err
	}

	return &llm.TextGenerationResponse{Text: f.text}, nil
}

func (f *fakeGenerator) Model() string { return "fake-model" }

func candidate(id int64, name, building string, score float32) vectorindex.SearchResult {
	return vectorindex.SearchResult{
		FacilityID: id,
		Score:      score,
		Facility: facilities.Facility{
			ID:       id,
			Name:     name,
			Type:     "study_area",
			Building: building,
		},
	}
}

func TestRetrieveRanksAndTruncates(t *testing.T) {
	index := &fakeIndex{results: []vectorindex.SearchResult{
		candidate(3, "Reading Room", "South Spine", 0.61),
		candidate(1, "Lee Wee Nam Library", "North Spine", 0.92),
		candidate(2, "Quiet Pods", "North Spine", 0.74),
		candidate(4, "Study Corner", "Hive", 0.52),
	}}

	svc := NewService(index, &fakeEmbedder{}, &fakeGenerator{text: "Try the library."}, 0.25)

	result, err := svc.Retrieve(context.Background(), "quiet study spot", nil, 3)
	require.NoError(t, err)

	require.Len(t, result.Matches, 3)
	assert.Equal(t, int64(1), result.Matches[0].FacilityID)
	assert.Equal(t, int64(2), result.Matches[1].FacilityID)
	assert.Equal(t, int64(3), result.Matches[2].FacilityID)
	assert.Equal(t, 3, result.TotalFound)
	assert.Equal(t, "study area", result.Matches[0].Type)
	assert.Equal(t, "Try the library.", result.Summary)
	assert.Equal(t, "quiet study spot", result.Query)
}

func TestRetrieveOverFetchesCandidates(t *testing.T) {
	index := &fakeIndex{}
	svc := NewService(index, &fakeEmbedder{}, &fakeGenerator{}, 0.25)

	_, err := svc.Retrieve(context.Background(), "coffee", nil, 5)
	require.NoError(t, err)

	// 3x the requested results, floored at 10
	require.Len(t, index.calls, 1)
	assert.Equal(t, 15, index.calls[0])

	_, err = svc.Retrieve(context.Background(), "coffee", nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, index.calls[1])
}

func TestRetrieveDeduplicatesByFacility(t *testing.T) {
	index := &fakeIndex{results: []vectorindex.SearchResult{
		candidate(1, "Lee Wee Nam Library", "North Spine", 0.70),
		candidate(1, "Lee Wee Nam Library", "North Spine", 0.90),
		candidate(2, "Quiet Pods", "North Spine", 0.80),
	}}

	svc := NewService(index, &fakeEmbedder{}, &fakeGenerator{text: "ok"}, 0.25)

	result, err := svc.Retrieve(context.Background(), "study", nil, 5)
	require.NoError(t, err)

	require.Len(t, result.Matches, 2)
	assert.Equal(t, int64(1), result.Matches[0].FacilityID)
	assert.InDelta(t, 0.90, result.Matches[0].Score, 1e-6)
	assert.Equal(t, 2, result.TotalFound)
}

func TestRetrieveRetriesEmbeddingOnce(t *testing.T) {
	embedder := &fakeEmbedder{failures: 1}
	svc := NewService(&fakeIndex{}, embedder, &fakeGenerator{}, 0.25)

	_, err := svc.Retrieve(context.Background(), "food", nil, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, embedder.calls)
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{failures: 10}
	index := &fakeIndex{}
	svc := NewService(index, embedder, &fakeGenerator{}, 0.25)

	_, err := svc.Retrieve(context.Background(), "food", nil, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbedding)
	assert.Equal(t, 2, embedder.calls)
	assert.Empty(t, index.calls, "index must not be consulted when embedding fails")
}

func TestRetrieveIndexNotBuiltPassesThrough(t *testing.T) {
	index := &fakeIndex{err: vectorindex.ErrNotBuilt}
	svc := NewService(index, &fakeEmbedder{}, &fakeGenerator{}, 0.25)

	_, err := svc.Retrieve(context.Background(), "food", nil, 5)
	assert.ErrorIs(t, err, vectorindex.ErrNotBuilt)
}

func TestRetrieveNoMatches(t *testing.T) {
	generator := &fakeGenerator{text: "should not be used"}
	svc := NewService(&fakeIndex{}, &fakeEmbedder{}, generator, 0.25)

	result, err := svc.Retrieve(context.Background(), "underwater basket weaving", nil, 5)
	require.NoError(t, err)

	assert.Empty(t, result.Matches)
	assert.Equal(t, 0, result.TotalFound)
	assert.Contains(t, result.Summary, "couldn't find facilities matching")
	assert.Zero(t, generator.calls, "generator is skipped when nothing matched")
}

func TestSummarizeFallsBackOnGeneratorError(t *testing.T) {
	index := &fakeIndex{results: []vectorindex.SearchResult{
		candidate(1, "Lee Wee Nam Library", "North Spine", 0.9),
		candidate(2, "Quiet Pods", "North Spine", 0.8),
		candidate(3, "Reading Room", "South Spine", 0.7),
		candidate(4, "Study Corner", "Hive", 0.6),
	}}
	generator := &fakeGenerator{err: errors.New("provider down")}
	svc := NewService(index, &fakeEmbedder{}, generator, 0.25)

	result, err := svc.Retrieve(context.Background(), "study", nil, 5)
	require.NoError(t, err)

	assert.Contains(t, result.Summary, "Lee Wee Nam Library (North Spine)")
	// fallback lists at most three facilities
	assert.NotContains(t, result.Summary, "Study Corner")
}

func TestSummaryPromptConstrainedToMatches(t *testing.T) {
	index := &fakeIndex{results: []vectorindex.SearchResult{
		candidate(1, "Lee Wee Nam Library", "North Spine", 0.9),
	}}
	generator := &fakeGenerator{text: "The library fits."}
	svc := NewService(index, &fakeEmbedder{}, generator, 0.25)

	history := []llm.Message{
		{Role: "user", Content: "I feel like pasta"},
		{Role: "assistant", Content: "Noted!"},
	}

	_, err := svc.Retrieve(context.Background(), "quiet study spot", history, 5)
	require.NoError(t, err)

	assert.Contains(t, generator.lastPrompt, "Lee Wee Nam Library")
	assert.Contains(t, generator.lastPrompt, "never invent others")
	assert.Contains(t, generator.lastPrompt, "Human: I feel like pasta")
}
