package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Uploaded photos are capped at 10 MiB.
const maxPhotoBytes = 10 << 20

// AnalyzeDish handles POST /analyze/dish with a multipart "photo" field.
func (h *Handler) AnalyzeDish(c *gin.Context) {
	userID, ok := h.authedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo must be 10MB or smaller"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read photo"})
		return
	}

	result, err := h.vision.AnalyzeDish(c.Request.Context(), userID.String(), data, header.Header.Get("Content-Type"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
