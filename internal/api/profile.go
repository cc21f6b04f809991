package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetProfile handles GET /profile.
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := h.authedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpgradePlan handles POST /profile/upgrade.
func (h *Handler) UpgradePlan(c *gin.Context) {
	userID, ok := h.authedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	profile, err := h.profiles.UpgradePlan(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
