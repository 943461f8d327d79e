package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-resolver-service/internal/models"
	"catalog-resolver-service/internal/services"
)

// LinkHandler serves canonical style linking and registry stats, consumed by
// seeding and linking tooling
type LinkHandler struct {
	registry *services.RegistryService
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(registry *services.RegistryService) *LinkHandler {
	return &LinkHandler{registry: registry}
}

// EnsureLinkRequest is the POST /links payload
type EnsureLinkRequest struct {
	Supplier       string  `json:"supplier" binding:"required"`
	SupplierPartID string  `json:"supplierPartId" binding:"required"`
	StyleNumber    string  `json:"styleNumber" binding:"required"`
	DisplayName    *string `json:"displayName,omitempty"`
	Brand          *string `json:"brand,omitempty"`
}

// EnsureLink handles POST /api/v1/catalog/links
func (h *LinkHandler) EnsureLink(c *gin.Context) {
	var req EnsureLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	style, err := h.registry.EnsureCanonicalStyleLink(
		c.Request.Context(),
		models.Supplier(req.Supplier),
		req.SupplierPartID,
		req.StyleNumber,
		req.DisplayName,
		req.Brand,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, style)
}

// GetStyleByNumber handles GET /api/v1/catalog/style-numbers/:styleNumber
func (h *LinkHandler) GetStyleByNumber(c *gin.Context) {
	style, err := h.registry.FindCanonicalStyleByStyleNumber(c.Request.Context(), c.Param("styleNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	if style == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "canonical style not found"})
		return
	}
	c.JSON(http.StatusOK, style)
}

// Stats handles GET /api/v1/catalog/stats
func (h *LinkHandler) Stats(c *gin.Context) {
	styles, err := h.registry.CountCanonicalStyles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	links, err := h.registry.CountSupplierLinks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"canonicalStyles": styles,
		"supplierLinks":   links,
	})
}
