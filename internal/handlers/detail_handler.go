package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-resolver-service/internal/services"
)

// DetailHandler serves merged multi-supplier style detail requests
type DetailHandler struct {
	detail *services.DetailService
}

// NewDetailHandler creates a new detail handler
func NewDetailHandler(detail *services.DetailService) *DetailHandler {
	return &DetailHandler{detail: detail}
}

// GetDetail handles GET /api/v1/catalog/styles/:id
func (h *DetailHandler) GetDetail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid canonical style id"})
		return
	}

	detail, err := h.detail.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "canonical style not found"})
		return
	}

	c.JSON(http.StatusOK, detail)
}
