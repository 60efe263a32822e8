package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"codeberg.org/campusfind/server/internal/errors"
)

// chat calls out to paid model APIs, so it gets a tighter budget than the
// read-only endpoints
const chatRequestsPerMinute = 30

// returns the CORS middleware for browser clients
func CORSMiddleware() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}

	return cors.New(corsConfig)
}

// returns a per-client-IP rate limiter backed by an in-memory store
func RateLimitMiddleware() gin.HandlerFunc {
	store := memory.NewStore()

	instance := limiter.New(store, limiter.Rate{
		Period: time.Minute,
		Limit:  chatRequestsPerMinute,
	})

	return mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		errors.TooManyRequests(c, "chat rate limit exceeded, slow down")
	}))
}
