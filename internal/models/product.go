package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Product is a primary-supplier product row as produced by the bulk ingestion job.
// This service only reads these tables; colors/sizes/media are append-only upstream.
type Product struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SupplierPartID string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_part" json:"supplierPartId"`
	Name           string    `gorm:"type:varchar(500);not null" json:"name"`
	Brand          *string   `gorm:"type:varchar(255);index:idx_products_brand" json:"brand,omitempty"`

	// Base blank garment cost before any decoration, as ingested
	BaseBlankCost *float64 `gorm:"type:decimal(12,2)" json:"baseBlankCost,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	Colors []ProductColor `gorm:"foreignKey:ProductID" json:"colors,omitempty"`
	Sizes  []ProductSize  `gorm:"foreignKey:ProductID" json:"sizes,omitempty"`
	Media  []MediaAsset   `gorm:"foreignKey:ProductID" json:"media,omitempty"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "supplier_products"
}

// ProductColor is one color offered for a product; ColorCode is unique per product
type ProductColor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_colors_code" json:"productId"`
	ColorCode string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_colors_code" json:"colorCode"`
	ColorName string    `gorm:"type:varchar(255);not null" json:"colorName"`
	SwatchURL *string   `gorm:"type:varchar(1000)" json:"swatchUrl,omitempty"`
}

// TableName specifies the table name for ProductColor
func (ProductColor) TableName() string {
	return "supplier_product_colors"
}

// ProductSize is one size offered for a product; SizeCode is unique per product
type ProductSize struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_sizes_code" json:"productId"`
	SizeCode  string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_sizes_code" json:"sizeCode"`
	SortOrder int       `gorm:"default:0" json:"sortOrder"`
}

// TableName specifies the table name for ProductSize
func (ProductSize) TableName() string {
	return "supplier_product_sizes"
}

// MediaAsset is a product image or swatch asset
type MediaAsset struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_media_assets_product" json:"productId"`
	URL       string    `gorm:"type:varchar(1000);not null" json:"url"`
	Kind      string    `gorm:"type:varchar(50);default:'image'" json:"kind"`
	ColorCode *string   `gorm:"type:varchar(50)" json:"colorCode,omitempty"`
	Position  int       `gorm:"default:0" json:"position"`
}

// TableName specifies the table name for MediaAsset
func (MediaAsset) TableName() string {
	return "supplier_media_assets"
}

// WarehouseStock is per-warehouse quantity inside an inventory row.
// WarehouseID is supplier-local; display names are resolved at read time.
type WarehouseStock struct {
	WarehouseID string `json:"warehouseId"`
	Quantity    int    `json:"quantity"`
}

// WarehouseStockList is stored as a jsonb column on inventory rows
type WarehouseStockList []WarehouseStock

// Value implements driver.Valuer for WarehouseStockList
func (l WarehouseStockList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for WarehouseStockList
func (l *WarehouseStockList) Scan(value interface{}) error {
	if value == nil {
		*l = WarehouseStockList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for WarehouseStockList: %T", value)
	}
	return json.Unmarshal(data, l)
}

// Sum returns the total quantity across all warehouses
func (l WarehouseStockList) Sum() int {
	total := 0
	for _, w := range l {
		total += w.Quantity
	}
	return total
}

// InventoryRow is one (part, color, size) inventory record from the primary supplier
type InventoryRow struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SupplierPartID string             `gorm:"type:varchar(100);not null;uniqueIndex:idx_inventory_rows_sku" json:"supplierPartId"`
	ColorCode      string             `gorm:"type:varchar(50);not null;uniqueIndex:idx_inventory_rows_sku" json:"colorCode"`
	SizeCode       string             `gorm:"type:varchar(50);not null;uniqueIndex:idx_inventory_rows_sku" json:"sizeCode"`
	TotalQty       int                `gorm:"default:0" json:"totalQty"`
	Warehouses     WarehouseStockList `gorm:"type:jsonb;default:'[]'" json:"warehouses"`

	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for InventoryRow
func (InventoryRow) TableName() string {
	return "supplier_inventory_rows"
}

// HasQuantityMismatch reports whether TotalQty disagrees with the per-warehouse sum.
// Mismatches are a data-quality signal from ingestion, not an enforced invariant.
func (r *InventoryRow) HasQuantityMismatch() bool {
	if len(r.Warehouses) == 0 {
		return false
	}
	return r.TotalQty != r.Warehouses.Sum()
}
