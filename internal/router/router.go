// Package router wires the gin engine, middleware and routes.
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/platewise/backend/internal/api"
	"github.com/platewise/backend/internal/middleware"
)

// Deps carries everything the route table needs.
type Deps struct {
	Handler   *api.Handler
	Validator middleware.TokenValidator
	Redis     *redis.Client
	Plans     middleware.PlanLookup
	Limits    middleware.QuotaLimits
	Logger    *zap.Logger
}

// New builds the gin engine with middleware and the full route table.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(d.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", d.Handler.HealthCheck)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", d.Handler.Register)
			auth.POST("/login", d.Handler.Login)
			auth.POST("/logout", middleware.Auth(d.Validator), d.Handler.Logout)
		}

		authed := v1.Group("")
		authed.Use(middleware.Auth(d.Validator))
		{
			recipes := authed.Group("/recipes")
			{
				recipes.POST("/generate",
					middleware.GenerationQuota(d.Redis, d.Plans, d.Limits, d.Logger),
					d.Handler.GenerateRecipes)
				recipes.GET("/saved", d.Handler.ListSavedRecipes)
				recipes.POST("/saved", d.Handler.SaveRecipe)
				recipes.DELETE("/saved/:id", d.Handler.RemoveSavedRecipe)
				recipes.POST("/saved/sync", d.Handler.SyncSavedRecipes)
			}

			authed.POST("/analyze/dish", d.Handler.AnalyzeDish)

			profile := authed.Group("/profile")
			{
				profile.GET("", d.Handler.GetProfile)
				profile.POST("/upgrade", d.Handler.UpgradePlan)
			}

			errs := authed.Group("/errors")
			{
				errs.GET("", d.Handler.RecentErrors)
				errs.DELETE("/:id", d.Handler.DismissError)
			}
		}
	}

	return r
}
