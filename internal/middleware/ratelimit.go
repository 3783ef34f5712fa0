package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// TriggerRateLimit bounds how often the trigger endpoints can be invoked,
// independent of the outbound bucket gating upstream calls. Misconfigured
// schedulers get a 429 instead of queueing work.
func TriggerRateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "trigger rate limit exceeded",
				"retryAfter": "1",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
