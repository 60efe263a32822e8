package admin

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/campusfind/server/internal/errors"
	"codeberg.org/campusfind/server/internal/facilities"
	"codeberg.org/campusfind/server/internal/logger"
	"codeberg.org/campusfind/server/internal/vectorindex"
)

// the slice of the vector index the admin endpoints need
type Index interface {
	Rebuild(ctx context.Context, facs []facilities.Facility) (vectorindex.RebuildStats, error)
	Stats() vectorindex.Stats
}

// read-only access to the facility record store
type FacilitySource interface {
	List(ctx context.Context) ([]facilities.Facility, error)
}

// LoadFacilitiesHandler re-reads the facility store and rebuilds the vector
// index from it. Only one rebuild runs at a time; a second call while one is
// in flight gets a 409 and the running rebuild is unaffected.
func LoadFacilitiesHandler(index Index, source FacilitySource) gin.HandlerFunc {
	return func(c *gin.Context) {
		facs, err := source.List(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to load facility records", err)
			return
		}

		stats, err := index.Rebuild(c.Request.Context(), facs)
		if err != nil {
			if stderrors.Is(err, vectorindex.ErrRebuildInProgress) {
				errors.Conflict(c, "an index rebuild is already in progress")
				return
			}

			errors.InternalError(c, "index rebuild failed, previous index left active", err)

			return
		}

		logger.Info("vector index rebuilt",
			"facilities", stats.Indexed,
			"generation", stats.Generation,
			"dimension", stats.Dimension,
		)

		c.JSON(http.StatusOK, LoadFacilitiesResponse{
			Status:           "ok",
			FacilitiesLoaded: stats.Indexed,
			Generation:       stats.Generation,
			Dimension:        stats.Dimension,
		})
	}
}

// VectorStatsHandler describes the active index generation
func VectorStatsHandler(index Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := index.Stats()

		resp := VectorStatsResponse{
			Ready:          stats.Ready,
			TotalDocuments: stats.TotalDocuments,
			Dimension:      stats.Dimension,
			Generation:     stats.Generation,
			SampleNames:    stats.SampleNames,
		}

		if stats.Ready {
			builtAt := stats.BuiltAt
			resp.BuiltAt = &builtAt
		}

		if resp.SampleNames == nil {
			resp.SampleNames = []string{}
		}

		c.JSON(http.StatusOK, resp)
	}
}
