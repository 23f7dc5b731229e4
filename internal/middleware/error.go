package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/logger"
	"stockbank/internal/metrics"
)

// ErrorHandler counts the last error attached to the Gin context by its code.
// If nothing has been written yet it also renders the error envelope, logging
// errors that are not AppErrors.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr := apperrors.From(err)
		metrics.RecordAPIError(appErr.Code)

		if c.Writer.Written() {
			return
		}

		if appErr == apperrors.ErrInternalServer || appErr.Internal != nil {
			logger.Get().Errorw("request failed",
				"request_id", c.GetString(requestIDKey),
				"code", appErr.Code,
				"error", err.Error(),
				"method", c.Request.Method,
				"path", c.FullPath(),
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
	}
}
