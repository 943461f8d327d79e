package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"catalog-resolver-service/internal/models"
)

// CatalogRepositoryInterface defines read access over the primary supplier's
// already-ingested catalog data. The ingestion job owns writes; a missing id
// is nil, never an error, so callers treat "not found" uniformly.
type CatalogRepositoryInterface interface {
	GetProductBySupplierPartID(ctx context.Context, supplierPartID string) (*models.Product, error)
	GetProductBaseBlankCost(ctx context.Context, supplierPartID string) (*float64, error)
	GetInventoryRows(ctx context.Context, supplierPartID string) ([]models.InventoryRow, error)
}

// CatalogRepository handles primary supplier catalog reads
type CatalogRepository struct {
	db *gorm.DB
}

// Ensure CatalogRepository implements the interface
var _ CatalogRepositoryInterface = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetProductBySupplierPartID retrieves a product with colors, sizes and media
// preloaded. Returns nil when the part id is unknown.
func (r *CatalogRepository) GetProductBySupplierPartID(ctx context.Context, supplierPartID string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Colors").
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("supplier_part_id = ?", supplierPartID).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductBaseBlankCost returns the ingested base blank cost for a part,
// nil when the part or its cost is unknown
func (r *CatalogRepository) GetProductBaseBlankCost(ctx context.Context, supplierPartID string) (*float64, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Select("base_blank_cost").
		Where("supplier_part_id = ?", supplierPartID).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return product.BaseBlankCost, nil
}

// GetInventoryRows returns all (color, size) inventory rows for a part
func (r *CatalogRepository) GetInventoryRows(ctx context.Context, supplierPartID string) ([]models.InventoryRow, error) {
	var rows []models.InventoryRow
	err := r.db.WithContext(ctx).
		Where("supplier_part_id = ?", supplierPartID).
		Order("color_code ASC, size_code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
