// Package api contains the gin HTTP handlers.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/platewise/backend/internal/apperrors"
	"github.com/platewise/backend/internal/database"
	"github.com/platewise/backend/internal/service"
	"github.com/platewise/backend/internal/validation"
)

// Handler bundles the services behind the HTTP surface. Dependencies arrive
// through the constructor; nothing here is a package-level singleton.
type Handler struct {
	auth     service.IAuthService
	llm      service.LLMServiceInterface
	vision   service.VisionServiceInterface
	saved    service.ISavedRecipeService
	profiles service.IProfileService
	sink     *apperrors.Sink
	validate *validation.Validator
	db       *gorm.DB
	logger   *zap.Logger
}

func NewHandler(
	auth service.IAuthService,
	llm service.LLMServiceInterface,
	vision service.VisionServiceInterface,
	saved service.ISavedRecipeService,
	profiles service.IProfileService,
	sink *apperrors.Sink,
	db *gorm.DB,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		auth:     auth,
		llm:      llm,
		vision:   vision,
		saved:    saved,
		profiles: profiles,
		sink:     sink,
		validate: validation.New(),
		db:       db,
		logger:   logger,
	}
}

// HealthCheck reports process and database liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	status := gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	if h.db != nil {
		if err := database.HealthCheck(c.Request.Context(), h.db); err != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}

	c.JSON(http.StatusOK, status)
}

// RecentErrors returns the bounded list of recently reported errors.
func (h *Handler) RecentErrors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"errors": h.sink.Recent()})
}

// DismissError removes one reported error by id.
func (h *Handler) DismissError(c *gin.Context) {
	h.sink.Dismiss(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// respondError maps an error kind onto an HTTP status and writes the
// normalized error body.
func (h *Handler) respondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindAuth:
		status = http.StatusUnauthorized
		if appErr.Code == apperrors.CodeUserExists {
			status = http.StatusConflict
		}
	case apperrors.KindConfiguration, apperrors.KindNetwork:
		status = http.StatusServiceUnavailable
	case apperrors.KindAPI, apperrors.KindParse:
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError || appErr.Severity == apperrors.SeverityCritical {
		h.sink.Report(appErr)
	} else {
		h.logger.Warn("request failed",
			zap.String("kind", string(appErr.Kind)),
			zap.String("message", appErr.Message),
		)
	}

	c.JSON(status, appErr)
}
