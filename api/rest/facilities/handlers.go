package facilities

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"codeberg.org/campusfind/server/internal/errors"
	"codeberg.org/campusfind/server/internal/facilities"
)

// ListFacilitiesHandler returns every facility record, ordered by id
func ListFacilitiesHandler(repo *facilities.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := repo.List(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to list facilities", err)
			return
		}

		for i := range list {
			list[i].Type = facilities.DisplayType(list[i].Type)
		}

		c.JSON(http.StatusOK, ListResponse{
			Facilities: list,
			Total:      len(list),
		})
	}
}

// GetFacilityHandler returns a single facility by numeric id
func GetFacilityHandler(repo *facilities.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			errors.BadRequest(c, "facility id must be an integer", nil)
			return
		}

		facility, err := repo.Get(c.Request.Context(), id)
		if err != nil {
			if stderrors.Is(err, facilities.ErrFacilityNotFound) {
				errors.NotFound(c, "facility")
				return
			}

			errors.InternalError(c, "failed to load facility", err)

			return
		}

		facility.Type = facilities.DisplayType(facility.Type)

		c.JSON(http.StatusOK, facility)
	}
}
