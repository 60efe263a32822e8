package vectorindex

import (
	"errors"
	"time"

	"codeberg.org/campusfind/server/internal/facilities"
)

var (
	// the index has never been built (no generation on disk or in memory);
	// distinct from "built but empty", which is a normal zero-result state
	ErrNotBuilt = errors.New("vector index has not been built")

	// another rebuild currently holds the writer lock
	ErrRebuildInProgress = errors.New("index rebuild already in progress")
)

// SearchResult is one nearest-neighbor hit. Facility is the denormalized
// metadata snapshot taken at index-build time, so no record-store join is
// needed at query time.
type SearchResult struct {
	FacilityID int64
	Score      float32
	Facility   facilities.Facility
}

// Stats describes the active index generation for /vector-stats and /health
type Stats struct {
	Ready          bool
	TotalDocuments int
	Dimension      int
	Generation     int64
	BuiltAt        time.Time
	SampleNames    []string
}

// RebuildStats reports what a rebuild (or attempted rebuild) accomplished
type RebuildStats struct {
	Indexed    int
	Failed     int
	Generation int64
	Dimension  int
}

// one embedded facility inside a snapshot
type record struct {
	facilityID int64
	vector     []float32
	norm       float32
	facility   facilities.Facility
}

// snapshot is an immutable, fully-built index generation. Readers grab the
// active snapshot through an atomic pointer and never see a half-built one.
type snapshot struct {
	generation int64
	dimension  int
	builtAt    time.Time
	records    []record // sorted by facilityID, unique per id
}
