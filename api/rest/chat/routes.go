package chat

import (
	"time"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, svc Retriever, timeout time.Duration) {
	router.POST("/chat", ChatHandler(svc, timeout))
}
