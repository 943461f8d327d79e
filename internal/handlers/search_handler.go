package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog-resolver-service/internal/services"
)

// SearchHandler serves catalog search requests
type SearchHandler struct {
	search *services.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search *services.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search handles GET /api/v1/catalog/search
func (h *SearchHandler) Search(c *gin.Context) {
	opts := services.SearchOptions{
		Limit:  parseIntQuery(c, "limit", 25),
		Offset: parseIntQuery(c, "offset", 0),
		Sort:   c.DefaultQuery("sort", services.SortRelevance),
	}

	if suppliers := c.Query("suppliers"); suppliers != "" {
		opts.Suppliers = strings.Split(suppliers, ",")
	}
	if inStock := c.Query("inStockOnly"); inStock != "" {
		opts.InStockOnly = inStock == "true" || inStock == "1"
	}

	result, err := h.search.SearchCanonicalStyles(c.Request.Context(), c.Query("q"), opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
