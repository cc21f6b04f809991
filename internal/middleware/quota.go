package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/platewise/backend/internal/models"
)

// PlanLookup resolves the plan tier for a user.
type PlanLookup interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
}

// QuotaLimits maps a plan to its monthly generation cap.
type QuotaLimits interface {
	MonthlyLimitFor(plan string) int
}

// GenerationQuota caps generations per user per calendar month, counted in
// Redis under gen_quota:<user>:<YYYY-MM>. Without Redis the quota is not
// enforced; generation still works.
func GenerationQuota(redisClient *redis.Client, plans PlanLookup, limits QuotaLimits, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		plan := models.PlanFree
		if uid, err := uuid.Parse(userID); err == nil {
			if profile, err := plans.GetProfile(c.Request.Context(), uid); err == nil {
				plan = profile.Plan
			}
		}
		limit := limits.MonthlyLimitFor(plan)

		key := fmt.Sprintf("gen_quota:%s:%s", userID, time.Now().Format("2006-01"))
		count, err := redisClient.Incr(c.Request.Context(), key).Result()
		if err != nil {
			// Quota accounting being down must not block generation.
			logger.Warn("quota counter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			// Key covers one calendar month; expire a comfortable margin after.
			redisClient.Expire(c.Request.Context(), key, 32*24*time.Hour)
		}

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("monthly generation limit of %d reached for the %s plan", limit, plan),
				"plan":  plan,
				"limit": limit,
			})
			return
		}

		c.Next()
	}
}
