package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/platewise/backend/internal/apperrors"
)

// TokenValidator verifies a bearer token and returns the user id it carries.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// Auth extracts and validates the Authorization bearer token, storing the
// user id in the gin context under "user_id".
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		userID, err := validator.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			appErr := apperrors.From(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, appErr)
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// UserID reads the authenticated user id set by Auth.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
