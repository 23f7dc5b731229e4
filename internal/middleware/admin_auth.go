package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "stockbank/internal/errors"
)

// AdminAuthMiddleware guards the admin routes with the X-API-Key header.
// An empty configured key disables the admin surface entirely.
func AdminAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, apperrors.ErrAdminNotConfigured)
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
