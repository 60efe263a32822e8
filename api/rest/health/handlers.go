package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// reports whether the vector index has an active generation
type IndexReadiness interface {
	Ready() bool
}

// Handler returns the server health status. The process is healthy even
// before the index is built; index_ready tells operators whether /chat can
// answer yet.
func Handler(index IndexReadiness) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, Response{
			Status:     "healthy",
			Service:    "campusfind",
			IndexReady: index.Ready(),
			Timestamp:  time.Now().UTC(),
		})
	}
}

// responds with pong for testing
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

// liveness message for the root path
func RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "campus facility finder API",
	})
}
