package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/platewise/backend/internal/apperrors"
)

// Recovery converts panics into a normalized error response instead of the
// default plain-text 500.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
				)
				appErr := apperrors.NewUnknown("internal panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, appErr)
			}
		}()
		c.Next()
	}
}
