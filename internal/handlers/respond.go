package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-resolver-service/internal/apperrors"
)

// respondError maps the error taxonomy onto HTTP statuses: validation 400,
// conflict 409, upstream unavailable 502 (upstream status preserved for
// diagnostics), anything else 500.
func respondError(c *gin.Context, err error) {
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
		return
	}

	var ce *apperrors.ConflictError
	if errors.As(err, &ce) {
		c.JSON(http.StatusConflict, gin.H{
			"error":          ce.Error(),
			"supplier":       ce.Supplier,
			"supplierPartId": ce.SupplierPartID,
			"existingStyle":  ce.ExistingStyle,
		})
		return
	}

	var ue *apperrors.UpstreamUnavailableError
	if errors.As(err, &ue) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":          ue.Error(),
			"supplier":       ue.Supplier,
			"upstreamStatus": ue.StatusCode,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
