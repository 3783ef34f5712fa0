package middleware

import (
	"crypto/subtle"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

const HeaderCronSecret = "x-cron-secret"

// CronAuth guards the trigger endpoints with the shared scheduler secret.
// The comparison is constant-time; rejected calls never reach an upstream
// API or the database.
func CronAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Error(apperrors.New(apperrors.ErrInternal, "cron secret is not configured", nil))
			c.Abort()
			return
		}
		provided := c.GetHeader(HeaderCronSecret)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.Error(apperrors.New(apperrors.ErrAuthFailed, "invalid or missing cron secret", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
