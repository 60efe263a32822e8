package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"codeberg.org/campusfind/server/internal/facilities"
	"codeberg.org/campusfind/server/internal/llm"
)

const (
	defaultEmbedBatchSize   = 64
	defaultEmbedConcurrency = 4
	statsSampleSize         = 5
)

// Index is the durable facility vector index. Searches are lock-free reads
// of an immutable snapshot; Rebuild and Upsert are the only writers and
// publish a fresh snapshot with a single atomic pointer swap, so a search
// racing a rebuild sees the fully-old or fully-new generation, never a mix.
type Index struct {
	store    *store
	embedder llm.Embedder

	writeMu sync.Mutex
	active  atomic.Pointer[snapshot]

	embedBatchSize   int
	embedConcurrency int
}

// Open opens (or creates) the on-disk store at path and loads the active
// generation into memory, so the index survives process restarts.
func Open(ctx context.Context, path string, embedder llm.Embedder) (*Index, error) {
	st, err := openStore(path)
	if err != nil {
		return nil, err
	}

	ix := &Index{
		store:            st,
		embedder:         embedder,
		embedBatchSize:   defaultEmbedBatchSize,
		embedConcurrency: defaultEmbedConcurrency,
	}

	snap, err := st.loadActive(ctx)
	if err != nil {
		st.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, err
	}

	if snap != nil {
		ix.active.Store(snap)
	}

	return ix, nil
}

func (ix *Index) Close() error {
	return ix.store.Close()
}

// reports whether the index has an active generation
func (ix *Index) Ready() bool {
	return ix.active.Load() != nil
}

// Rebuild wipes and re-embeds the whole index from the given facility set.
// At most one rebuild runs at a time; a concurrent attempt gets
// ErrRebuildInProgress. On any embedding or storage failure the previously
// active generation stays served and the returned stats say how far the
// attempt got. Repeated rebuilds with the same facility set converge to the
// same index content.
func (ix *Index) Rebuild(ctx context.Context, facs []facilities.Facility) (RebuildStats, error) {
	if !ix.writeMu.TryLock() {
		return RebuildStats{}, ErrRebuildInProgress
	}

	defer ix.writeMu.Unlock()

	vectors := make([][]float32, len(facs))

	var embedded atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.embedConcurrency)

	for start := 0; start < len(facs); start += ix.embedBatchSize {
		start := start
		end := min(start+ix.embedBatchSize, len(facs))

		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, f := range facs[start:end] {
				texts = append(texts, facilities.SearchDocument(f))
			}

			batch, err := ix.embedder.GenerateEmbeddings(gctx, texts)
			if err != nil {
				return fmt.Errorf("failed to embed facilities %d-%d: %w", facs[start].ID, facs[end-1].ID, err)
			}

			copy(vectors[start:end], batch)
			embedded.Add(int64(end - start))

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		done := int(embedded.Load())

		return RebuildStats{
			Indexed: done,
			Failed:  len(facs) - done,
		}, fmt.Errorf("rebuild aborted, previous index generation left active: %w", err)
	}

	dimension := ix.embedder.Dimension()
	if len(vectors) > 0 {
		dimension = len(vectors[0])
	}

	generation := int64(1)
	if prev := ix.active.Load(); prev != nil {
		generation = prev.generation + 1
	}

	builtAt := time.Now().UTC()

	if err := ix.store.writeGeneration(ctx, generation, dimension, builtAt, facs, vectors); err != nil {
		done := int(embedded.Load())

		return RebuildStats{
			Indexed: done,
			Failed:  len(facs) - done,
		}, fmt.Errorf("rebuild aborted, previous index generation left active: %w", err)
	}

	ix.active.Store(newSnapshot(generation, dimension, builtAt, facs, vectors))

	// best-effort sweep; stale rows are also superseded on the next rebuild
	ix.store.dropGenerationsBefore(ctx, generation) //nolint:errcheck,gosec

	return RebuildStats{
		Indexed:    len(facs),
		Generation: generation,
		Dimension:  dimension,
	}, nil
}

// Upsert re-embeds and replaces a single facility within the active
// generation. On a never-built index it starts generation 1 with that one
// record.
func (ix *Index) Upsert(ctx context.Context, f facilities.Facility) error {
	vector, err := ix.embedder.GenerateEmbedding(ctx, facilities.SearchDocument(f))
	if err != nil {
		return fmt.Errorf("failed to embed facility %d: %w", f.ID, err)
	}

	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	generation := int64(1)
	dimension := len(vector)
	builtAt := time.Now().UTC()

	var kept []record

	if prev := ix.active.Load(); prev != nil {
		generation = prev.generation
		dimension = prev.dimension
		builtAt = prev.builtAt

		kept = make([]record, 0, len(prev.records)+1)
		for _, rec := range prev.records {
			if rec.facilityID != f.ID {
				kept = append(kept, rec)
			}
		}
	}

	if err := ix.store.upsertRecord(ctx, generation, dimension, builtAt, f, vector); err != nil {
		return err
	}

	kept = append(kept, record{
		facilityID: f.ID,
		vector:     vector,
		norm:       vectorNorm(vector),
		facility:   f,
	})

	sort.Slice(kept, func(i, j int) bool { return kept[i].facilityID < kept[j].facilityID })

	ix.active.Store(&snapshot{
		generation: generation,
		dimension:  dimension,
		builtAt:    builtAt,
		records:    kept,
	})

	return nil
}

// Search returns up to k nearest neighbors by cosine similarity, descending,
// with ties broken by facility id ascending. Results scoring below minScore
// are excluded. A built-but-empty index returns an empty slice; a
// never-built index returns ErrNotBuilt.
func (ix *Index) Search(ctx context.Context, queryVector []float32, k int, minScore float32) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := ix.active.Load()
	if snap == nil {
		return nil, ErrNotBuilt
	}

	if k <= 0 || len(snap.records) == 0 {
		return []SearchResult{}, nil
	}

	queryNorm := vectorNorm(queryVector)
	if queryNorm == 0 {
		return []SearchResult{}, nil
	}

	results := make([]SearchResult, 0, len(snap.records))

	for _, rec := range snap.records {
		if len(rec.vector) != len(queryVector) || rec.norm == 0 {
			continue
		}

		score := dotProduct(queryVector, rec.vector) / (queryNorm * rec.norm)
		if score < minScore {
			continue
		}

		results = append(results, SearchResult{
			FacilityID: rec.facilityID,
			Score:      score,
			Facility:   rec.facility,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}

		return results[i].FacilityID < results[j].FacilityID
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// Stats describes the active generation; Ready is false when the index has
// never been built.
func (ix *Index) Stats() Stats {
	snap := ix.active.Load()
	if snap == nil {
		return Stats{}
	}

	sample := make([]string, 0, statsSampleSize)
	for _, rec := range snap.records {
		if len(sample) == statsSampleSize {
			break
		}

		sample = append(sample, rec.facility.Name)
	}

	return Stats{
		Ready:          true,
		TotalDocuments: len(snap.records),
		Dimension:      snap.dimension,
		Generation:     snap.generation,
		BuiltAt:        snap.builtAt,
		SampleNames:    sample,
	}
}

// Reset wipes the on-disk store and drops the active snapshot. Used by the
// indexer CLI, not exposed over HTTP.
func (ix *Index) Reset(ctx context.Context) error {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	if err := ix.store.reset(ctx); err != nil {
		return err
	}

	ix.active.Store(nil)

	return nil
}

// builds an immutable snapshot, deduplicating by facility id (last write
// wins) and sorting by id
func newSnapshot(generation int64, dimension int, builtAt time.Time, facs []facilities.Facility, vectors [][]float32) *snapshot {
	byID := make(map[int64]record, len(facs))

	for i, f := range facs {
		byID[f.ID] = record{
			facilityID: f.ID,
			vector:     vectors[i],
			norm:       vectorNorm(vectors[i]),
			facility:   f,
		}
	}

	records := make([]record, 0, len(byID))
	for _, rec := range byID {
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].facilityID < records[j].facilityID })

	return &snapshot{
		generation: generation,
		dimension:  dimension,
		builtAt:    builtAt,
		records:    records,
	}
}

func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}

	return sum
}

func vectorNorm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	return float32(math.Sqrt(sum))
}
