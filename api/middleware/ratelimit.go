package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/use-agent/harvester/cache"
	"github.com/use-agent/harvester/config"
	"github.com/use-agent/harvester/models"
)

// RateLimit returns per-identity (API key or IP) token-bucket rate limiting
// middleware powered by golang.org/x/time/rate. A crawl holds its request
// open for the whole harvest, so limits are counted per request, not per
// fetched page.
//
// Identities idle for an hour are forgotten; limiters live in a cache.TTL
// that is refreshed on every request.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	limiters := cache.New[string, *rate.Limiter](0, time.Hour)
	var mu sync.Mutex

	getLimiter := func(identity string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		limiter, ok := limiters.Get(identity)
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
		}
		limiters.Set(identity, limiter)
		return limiter
	}

	return func(c *gin.Context) {
		// Prefer API key as identity (set by auth middleware); fall back to IP.
		identity, exists := c.Get(APIKeyContextKey)
		if !exists {
			identity = c.ClientIP()
		}

		limiter := getLimiter(identity.(string))
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.CrawlResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}
