package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
)

// ErrorHandler renders the last error attached to the Gin context. AppErrors
// keep their code and message; anything else becomes INTERNAL_ERROR so storage
// failures never reach the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			logger.Get().Errorw("unexpected error",
				"request_id", RequestID(c),
				"error", err.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
			abortWithAppError(c, apperrors.ErrInternalServer)
			return
		}

		if appErr.Internal != nil || appErr.Kind == apperrors.KindInternal {
			logger.Get().Errorw("app error",
				"request_id", RequestID(c),
				"code", appErr.Code,
				"message", appErr.Message,
				"internal", appErr.Internal,
				"path", c.Request.URL.Path,
			)
		} else {
			logger.Get().Debugw("request rejected",
				"request_id", RequestID(c),
				"kind", appErr.Kind,
				"code", appErr.Code,
			)
		}
		abortWithAppError(c, appErr)
	}
}

// abortWithAppError writes the error envelope shared by every failure response.
func abortWithAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
