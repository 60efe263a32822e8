package facilities

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/campusfind/server/internal/facilities"
)

func RegisterRoutes(router *gin.RouterGroup, repo *facilities.Repository) {
	router.GET("/facilities", ListFacilitiesHandler(repo))
	router.GET("/facilities/:id", GetFacilityHandler(repo))
}
