package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/platewise/backend/internal/middleware"
	"github.com/platewise/backend/internal/models"
	"github.com/platewise/backend/internal/service"
)

type generateRequest struct {
	Ingredients []string `json:"ingredients" validate:"required,min=1,dive,required"`
	Cuisine     string   `json:"cuisine" validate:"omitempty,max=50"`
	DishType    string   `json:"dish_type" validate:"omitempty,max=50"`
	SkillLevel  string   `json:"skill_level" validate:"omitempty,oneof=beginner pro legendary"`
	Servings    int      `json:"servings" validate:"omitempty,gte=1"`
	Enhanced    bool     `json:"enhanced"`
}

type saveRecipeRequest struct {
	Recipe models.Recipe `json:"recipe" validate:"required"`
}

// GenerateRecipes handles POST /recipes/generate.
func (h *Handler) GenerateRecipes(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if appErr := h.validate.Struct(&req); appErr != nil {
		h.respondError(c, appErr)
		return
	}

	recipes, err := h.llm.GenerateRecipes(c.Request.Context(), service.GenerateParams{
		Ingredients: req.Ingredients,
		Cuisine:     req.Cuisine,
		DishType:    req.DishType,
		SkillLevel:  req.SkillLevel,
		Servings:    req.Servings,
		Enhanced:    req.Enhanced,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if userID, ok := h.authedUser(c); ok {
		if _, err := h.profiles.RecordGeneration(c.Request.Context(), userID, len(recipes)); err != nil {
			h.logger.Warn("failed to record generation usage", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// ListSavedRecipes handles GET /recipes/saved.
func (h *Handler) ListSavedRecipes(c *gin.Context) {
	userID, ok := h.authedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	rows, err := h.saved.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved_recipes": rows})
}

// SaveRecipe handles POST /recipes/saved.
func (h *Handler) SaveRecipe(c *gin.Context) {
	userID, ok := h.authedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req saveRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Recipe.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipe name is required"})
		return
	}

	row, err := h.saved.Save(c.Request.Context(), userID, req.Recipe)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, row)
}

// RemoveSavedRecipe handles DELETE /recipes/saved/:id.
func (h *Handler) RemoveSavedRecipe(c *gin.Context) {
	userID, ok := h.authedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	savedID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	if err := h.saved.Remove(c.Request.Context(), userID, savedID); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SyncSavedRecipes handles POST /recipes/saved/sync, replaying any writes
// deferred while offline.
func (h *Handler) SyncSavedRecipes(c *gin.Context) {
	if _, ok := h.authedUser(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	h.saved.Sync(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "sync triggered"})
}

func (h *Handler) authedUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		return uuid.Nil, false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, false
	}
	return parsed, true
}
