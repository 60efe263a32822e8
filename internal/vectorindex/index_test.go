package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/campusfind/server/internal/facilities"
)

const fakeDimension = 64

// fakeEmbedder maps text to a bag-of-tokens vector so that token overlap
// translates into cosine similarity, which is enough to exercise ranking
// without a real model
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
	fail  func(texts []string) error
}

func (e *fakeEmbedder) Dimension() int { return fakeDimension }

func (e *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vectors[0], nil
}

func (e *fakeEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.fail != nil {
		if err := e.fail(texts); err != nil {
			return nil, err
		}
	}

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = embedTokens(text)
	}

	return vectors, nil
}

func embedTokens(text string) []float32 {
	vector := make([]float32, fakeDimension)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,:!?")
		if token == "" {
			continue
		}

		var h uint32
		for _, r := range token {
			h = h*31 + uint32(r)
		}

		vector[h%fakeDimension]++
	}

	return vector
}

func testFacilities() []facilities.Facility {
	return []facilities.Facility{
		{
			ID:       1,
			Name:     "Lee Wee Nam Library",
			Type:     "study_area",
			Building: "North Spine",
			Attrs:    map[string]bool{"aircon": true, "quiet_zone": true, "outlet": true},
		},
		{
			ID:       2,
			Name:     "Each a Cup",
			Type:     "beverage",
			Building: "North Spine",
			Attrs:    map[string]bool{"halal": true, "dine_in": true},
		},
		{
			ID:       3,
			Name:     "Koufu Food Court",
			Type:     "food",
			Building: "South Spine",
			Attrs:    map[string]bool{"halal": true, "dine_in": true, "takeaway": true},
		},
	}
}

func openTestIndex(t *testing.T, embedder *fakeEmbedder) *Index {
	t.Helper()

	ix, err := Open(context.Background(), filepath.Join(t.TempDir(), "vectors.db"), embedder)
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() }) //nolint:errcheck

	return ix
}

// a never-built index must be distinguishable from an empty one
func TestSearchNotBuilt(t *testing.T) {
	ix := openTestIndex(t, &fakeEmbedder{})

	_, err := ix.Search(context.Background(), embedTokens("anything"), 5, 0)
	assert.ErrorIs(t, err, ErrNotBuilt)
	assert.False(t, ix.Ready())
}

func TestRebuildAndSearch(t *testing.T) {
	embedder := &fakeEmbedder{}
	ix := openTestIndex(t, embedder)

	stats, err := ix.Rebuild(context.Background(), testFacilities())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Indexed)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, int64(1), stats.Generation)
	assert.True(t, ix.Ready())

	query, err := embedder.GenerateEmbedding(context.Background(),
		"quiet place to study with air conditioning available")
	require.NoError(t, err)

	results, err := ix.Search(context.Background(), query, 2, 0.05)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// the library shares study/quiet/aircon vocabulary and must rank first
	assert.Equal(t, int64(1), results[0].FacilityID)
	assert.Equal(t, "Lee Wee Nam Library", results[0].Facility.Name)

	// ordered by similarity descending, at most k items, all above threshold
	assert.LessOrEqual(t, len(results), 2)
	for i := 0; i < len(results)-1; i++ {
		assert.GreaterOrEqual(t, results[i].Score, results[i+1].Score)
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, float32(0.05))
	}
}

func TestSearchNoDuplicateIDs(t *testing.T) {
	embedder := &fakeEmbedder{}
	ix := openTestIndex(t, embedder)

	// duplicate input rows for the same facility must collapse to one record
	facs := append(testFacilities(), testFacilities()[0])
	_, err := ix.Rebuild(context.Background(), facs)
	require.NoError(t, err)

	assert.Equal(t, 3, ix.Stats().TotalDocuments)

	results, err := ix.Search(context.Background(), embedTokens("north spine study library"), 10, -1)
	require.NoError(t, err)

	seen := make(map[int64]bool)
	for _, r := range results {
		assert.False(t, seen[r.FacilityID], "duplicate facility id %d", r.FacilityID)
		seen[r.FacilityID] = true
	}
}

func TestRebuildIdempotent(t *testing.T) {
	embedder := &fakeEmbedder{}
	ix := openTestIndex(t, embedder)

	first, err := ix.Rebuild(context.Background(), testFacilities())
	require.NoError(t, err)

	query := embedTokens("halal food court")
	before, err := ix.Search(context.Background(), query, 10, -1)
	require.NoError(t, err)

	second, err := ix.Rebuild(context.Background(), testFacilities())
	require.NoError(t, err)

	after, err := ix.Search(context.Background(), query, 10, -1)
	require.NoError(t, err)

	assert.Equal(t, first.Indexed, second.Indexed)
	assert.Equal(t, before, after)
	assert.Equal(t, len(testFacilities()), ix.Stats().TotalDocuments)
}

func TestRebuildEmptySet(t *testing.T) {
	ix := openTestIndex(t, &fakeEmbedder{})

	stats, err := ix.Rebuild(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Indexed)
	assert.True(t, ix.Ready())

	// built-but-empty: zero results, not an error
	results, err := ix.Search(context.Background(), embedTokens("anything at all"), 5, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, ix.Stats().TotalDocuments)
}

func TestRebuildFailureKeepsPreviousGeneration(t *testing.T) {
	embedder := &fakeEmbedder{}
	ix := openTestIndex(t, embedder)

	_, err := ix.Rebuild(context.Background(), testFacilities())
	require.NoError(t, err)

	embedder.fail = func([]string) error { return errors.New("model unavailable") }

	_, err = ix.Rebuild(context.Background(), testFacilities())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRebuildInProgress)

	// the old generation keeps serving
	embedder.fail = nil
	results, err := ix.Search(context.Background(), embedTokens("library study"), 5, -1)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
	assert.Equal(t, int64(1), ix.Stats().Generation)
}

func TestRebuildSerialized(t *testing.T) {
	embedder := &fakeEmbedder{delay: 200 * time.Millisecond}
	ix := openTestIndex(t, embedder)

	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		close(started)
		_, err := ix.Rebuild(context.Background(), testFacilities())
		done <- err
	}()

	<-started
	time.Sleep(50 * time.Millisecond)

	_, err := ix.Rebuild(context.Background(), testFacilities())
	assert.ErrorIs(t, err, ErrRebuildInProgress)

	require.NoError(t, <-done)
}

// searches racing a slow rebuild must see the fully-old or fully-new
// generation, never a mixture
func TestSearchDuringRebuildSeesOneGeneration(t *testing.T) {
	embedder := &fakeEmbedder{}
	ix := openTestIndex(t, embedder)

	oldGen := testFacilities()
	for i := range oldGen {
		oldGen[i].Building = "Generation One"
	}

	newGen := testFacilities()
	for i := range newGen {
		newGen[i].Building = "Generation Two"
	}

	_, err := ix.Rebuild(context.Background(), oldGen)
	require.NoError(t, err)

	embedder.delay = 50 * time.Millisecond
	ix.embedBatchSize = 1 // force several slow batches per rebuild

	rebuildDone := make(chan error, 1)
	go func() {
		_, err := ix.Rebuild(context.Background(), newGen)
		rebuildDone <- err
	}()

	query := embedTokens("spine library food cup")
	deadline := time.After(2 * time.Second)

	for {
		select {
		case err := <-rebuildDone:
			require.NoError(t, err)
			return
		case <-deadline:
			t.Fatal("rebuild did not finish")
		default:
		}

		results, err := ix.Search(context.Background(), query, 10, -1)
		require.NoError(t, err)
		require.NotEmpty(t, results)

		building := results[0].Facility.Building
		for _, r := range results {
			assert.Equal(t, building, r.Facility.Building,
				"search observed records from mixed generations")
		}
	}
}

func TestUpsertReplacesRecord(t *testing.T) {
	embedder := &fakeEmbedder{}
	ix := openTestIndex(t, embedder)

	_, err := ix.Rebuild(context.Background(), testFacilities())
	require.NoError(t, err)

	renamed := testFacilities()[1]
	renamed.Name = "Gong Cha"
	require.NoError(t, ix.Upsert(context.Background(), renamed))

	assert.Equal(t, 3, ix.Stats().TotalDocuments)

	results, err := ix.Search(context.Background(), embedTokens("gong cha bubble tea"), 3, -1)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, int64(2), results[0].FacilityID)
	assert.Equal(t, "Gong Cha", results[0].Facility.Name)
}

func TestIndexSurvivesRestart(t *testing.T) {
	embedder := &fakeEmbedder{}
	path := filepath.Join(t.TempDir(), "vectors.db")

	ix, err := Open(context.Background(), path, embedder)
	require.NoError(t, err)

	_, err = ix.Rebuild(context.Background(), testFacilities())
	require.NoError(t, err)

	statsBefore := ix.Stats()
	require.NoError(t, ix.Close())

	reopened, err := Open(context.Background(), path, embedder)
	require.NoError(t, err)
	defer reopened.Close() //nolint:errcheck

	statsAfter := reopened.Stats()
	assert.True(t, statsAfter.Ready)
	assert.Equal(t, statsBefore.TotalDocuments, statsAfter.TotalDocuments)
	assert.Equal(t, statsBefore.Generation, statsAfter.Generation)

	results, err := reopened.Search(context.Background(), embedTokens("quiet library study"), 3, -1)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, int64(1), results[0].FacilityID)
}

func TestVectorRoundTrip(t *testing.T) {
	vector := []float32{0.5, -1.25, 3.75, 0}

	decoded, err := decodeVector(encodeVector(vector))
	require.NoError(t, err)
	assert.Equal(t, vector, decoded)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestStatsSample(t *testing.T) {
	embedder := &fakeEmbedder{}
	ix := openTestIndex(t, embedder)

	var facs []facilities.Facility
	for i := 1; i <= 8; i++ {
		facs = append(facs, facilities.Facility{
			ID:       int64(i),
			Name:     fmt.Sprintf("Facility %d", i),
			Type:     "study_area",
			Building: "North Spine",
		})
	}

	_, err := ix.Rebuild(context.Background(), facs)
	require.NoError(t, err)

	stats := ix.Stats()
	assert.Equal(t, 8, stats.TotalDocuments)
	assert.Len(t, stats.SampleNames, statsSampleSize)
	assert.Equal(t, fakeDimension, stats.Dimension)
	assert.False(t, stats.BuiltAt.IsZero())
}
