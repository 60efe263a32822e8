package admin

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, index Index, source FacilitySource) {
	router.POST("/load-facilities", LoadFacilitiesHandler(index, source))
	router.GET("/vector-stats", VectorStatsHandler(index))
}
