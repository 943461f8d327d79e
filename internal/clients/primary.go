package clients

import (
	"context"
	"time"

	"catalog-resolver-service/internal/apperrors"
	"catalog-resolver-service/internal/models"
	"catalog-resolver-service/internal/repository"
)

// PrimaryClient adapts the primary supplier's in-process catalog repository to
// the SupplierClient interface so aggregation treats both suppliers uniformly.
// No network, no retries, no fallback path.
type PrimaryClient struct {
	repo repository.CatalogRepositoryInterface
}

// NewPrimaryClient creates a repository-backed primary supplier client
func NewPrimaryClient(repo repository.CatalogRepositoryInterface) *PrimaryClient {
	return &PrimaryClient{repo: repo}
}

// Supplier returns the supplier this client serves
func (c *PrimaryClient) Supplier() models.Supplier {
	return models.SupplierPrimary
}

// FetchProductWithFallback reads the ingested catalog. A part the ingestion
// job never produced surfaces as a not-found validation error rather than an
// upstream failure: there is no upstream to blame.
func (c *PrimaryClient) FetchProductWithFallback(ctx context.Context, supplierPartID string) (*FetchResult, error) {
	partID := models.NormalizePartID(supplierPartID)
	if partID == "" {
		return nil, apperrors.NewValidationError("supplierPartId", "must not be empty")
	}

	product, err := c.repo.GetProductBySupplierPartID(ctx, partID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperrors.NewValidationError("supplierPartId", "unknown primary supplier part "+partID)
	}

	rows, err := c.repo.GetInventoryRows(ctx, partID)
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		Product:   shapeCatalogProduct(product),
		Inventory: shapeCatalogInventory(rows),
		Source:    SourceCatalog,
		Warnings:  nil,
		FetchedAt: time.Now(),
	}, nil
}

func shapeCatalogProduct(p *models.Product) *ProductData {
	data := &ProductData{
		SupplierPartID: p.SupplierPartID,
		Name:           p.Name,
		Colors:         make([]ColorData, 0, len(p.Colors)),
		Sizes:          make([]SizeData, 0, len(p.Sizes)),
		Media:          make([]MediaData, 0, len(p.Media)),
	}
	if p.Brand != nil {
		data.Brand = *p.Brand
	}
	for _, c := range p.Colors {
		color := ColorData{ColorCode: c.ColorCode, ColorName: c.ColorName}
		if c.SwatchURL != nil {
			color.SwatchURL = *c.SwatchURL
		}
		data.Colors = append(data.Colors, color)
	}
	for _, s := range p.Sizes {
		data.Sizes = append(data.Sizes, SizeData{SizeCode: s.SizeCode})
	}
	for _, m := range p.Media {
		media := MediaData{URL: m.URL, Kind: m.Kind}
		if m.ColorCode != nil {
			media.ColorCode = *m.ColorCode
		}
		data.Media = append(data.Media, media)
	}
	return data
}

func shapeCatalogInventory(rows []models.InventoryRow) []InventoryRowData {
	out := make([]InventoryRowData, 0, len(rows))
	for _, r := range rows {
		out = append(out, InventoryRowData{
			SupplierPartID: r.SupplierPartID,
			ColorCode:      r.ColorCode,
			SizeCode:       r.SizeCode,
			TotalQty:       r.TotalQty,
			Warehouses:     r.Warehouses,
		})
	}
	return out
}
