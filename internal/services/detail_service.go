package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-resolver-service/internal/clients"
	"catalog-resolver-service/internal/models"
	"catalog-resolver-service/internal/repository"
	"catalog-resolver-service/internal/warehouse"
)

// DetailInventoryRow is one inventory row with warehouse names resolved
type DetailInventoryRow struct {
	ColorCode        string                    `json:"colorCode"`
	SizeCode         string                    `json:"sizeCode"`
	TotalQty         int                       `json:"totalQty"`
	Warehouses       []warehouse.ResolvedStock `json:"warehouses"`
	QuantityMismatch bool                      `json:"quantityMismatch,omitempty"`
}

// SupplierDetail is one supplier's contribution to a style detail response.
// A failed fetch leaves Product nil and explains itself in Warnings; it never
// fails the whole response.
type SupplierDetail struct {
	Supplier       models.Supplier      `json:"supplier"`
	SupplierPartID string               `json:"supplierPartId"`
	Source         string               `json:"source,omitempty"`
	Product        *clients.ProductData `json:"product,omitempty"`
	Inventory      []DetailInventoryRow `json:"inventory,omitempty"`
	Warnings       []string             `json:"warnings,omitempty"`
}

// StyleDetail is the merged multi-supplier view of one canonical style
type StyleDetail struct {
	CanonicalStyle *models.CanonicalStyle `json:"canonicalStyle"`
	Suppliers      []SupplierDetail       `json:"suppliers"`
}

// DetailService aggregates product and inventory data for one canonical style
// across every linked supplier
type DetailService struct {
	styles    repository.StyleRepositoryInterface
	suppliers *clients.Registry
	logger    *logrus.Entry
}

// NewDetailService creates a new detail aggregation service
func NewDetailService(styles repository.StyleRepositoryInterface, suppliers *clients.Registry, logger *logrus.Logger) *DetailService {
	return &DetailService{
		styles:    styles,
		suppliers: suppliers,
		logger:    logrus.NewEntry(logger).WithField("component", "detail"),
	}
}

// GetDetail loads a canonical style and fetches every linked supplier
// concurrently. The supplier fetches touch disjoint data, so one slow or
// failing supplier delays but never suppresses the others: failures degrade to
// per-supplier warnings. Returns nil when the style id is unknown.
func (s *DetailService) GetDetail(ctx context.Context, canonicalStyleID uuid.UUID) (*StyleDetail, error) {
	style, err := s.styles.GetStyleByID(ctx, canonicalStyleID)
	if err != nil {
		return nil, err
	}
	if style == nil {
		return nil, nil
	}

	details := make([]SupplierDetail, len(style.Links))
	var wg sync.WaitGroup
	for i, link := range style.Links {
		wg.Add(1)
		go func(i int, link models.SupplierLink) {
			defer wg.Done()
			details[i] = s.fetchSupplier(ctx, style.StyleNumber, link)
		}(i, link)
	}
	wg.Wait()

	return &StyleDetail{CanonicalStyle: style, Suppliers: details}, nil
}

func (s *DetailService) fetchSupplier(ctx context.Context, styleNumber string, link models.SupplierLink) SupplierDetail {
	detail := SupplierDetail{
		Supplier:       link.Supplier,
		SupplierPartID: link.SupplierPartID,
	}

	client := s.suppliers.For(link.Supplier)
	if client == nil {
		detail.Warnings = []string{"no client registered for supplier " + string(link.Supplier)}
		return detail
	}

	result, err := client.FetchProductWithFallback(ctx, link.SupplierPartID)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"styleNumber": styleNumber,
			"supplier":    link.Supplier,
			"partId":      link.SupplierPartID,
		}).WithError(err).Warn("supplier fetch failed, returning partial detail")
		detail.Warnings = []string{"fetch failed: " + err.Error()}
		return detail
	}

	detail.Source = result.Source
	detail.Product = result.Product
	detail.Warnings = result.Warnings
	detail.Inventory = s.shapeInventory(styleNumber, link, result.Inventory)
	return detail
}

// shapeInventory resolves warehouse display names at read time and flags rows
// whose totalQty disagrees with the per-warehouse sum. Mismatches are an
// ingestion data-quality signal: logged and surfaced, never an error.
func (s *DetailService) shapeInventory(styleNumber string, link models.SupplierLink, rows []clients.InventoryRowData) []DetailInventoryRow {
	if len(rows) == 0 {
		return nil
	}
	out := make([]DetailInventoryRow, 0, len(rows))
	for _, row := range rows {
		mismatch := false
		if len(row.Warehouses) > 0 {
			sum := 0
			for _, w := range row.Warehouses {
				sum += w.Quantity
			}
			if sum != row.TotalQty {
				mismatch = true
				s.logger.WithFields(logrus.Fields{
					"styleNumber":  styleNumber,
					"supplier":     link.Supplier,
					"partId":       row.SupplierPartID,
					"colorCode":    row.ColorCode,
					"sizeCode":     row.SizeCode,
					"totalQty":     row.TotalQty,
					"warehouseSum": sum,
				}).Warn("inventory row quantity mismatch")
			}
		}
		out = append(out, DetailInventoryRow{
			ColorCode:        row.ColorCode,
			SizeCode:         row.SizeCode,
			TotalQty:         row.TotalQty,
			Warehouses:       warehouse.ResolveStocks(link.Supplier, row.Warehouses),
			QuantityMismatch: mismatch,
		})
	}
	return out
}
