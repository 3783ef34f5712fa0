package middleware

import (
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
)

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()

		metrics.TriggerLatency.WithLabelValues(c.FullPath()).Observe(duration)
	}
}
