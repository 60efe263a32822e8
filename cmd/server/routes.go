package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/campusfind/server/api/rest/admin"
	"codeberg.org/campusfind/server/api/rest/chat"
	facilitiesapi "codeberg.org/campusfind/server/api/rest/facilities"
	"codeberg.org/campusfind/server/api/rest/health"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	router.Use(CORSMiddleware())

	router.GET("/", health.RootHandler)
	router.GET("/health", health.Handler(server.index))
	router.GET("/ping", health.PingHandler)

	root := router.Group("/")

	{
		admin.RegisterRoutes(root, server.index, server.facilityRepo)
		facilitiesapi.RegisterRoutes(root, server.facilityRepo)
	}

	chatGroup := router.Group("/")
	chatGroup.Use(RateLimitMiddleware())

	{
		chat.RegisterRoutes(chatGroup, server.services.Retriever, server.config.ChatTimeout)
	}
}
