package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Supplier identifies which upstream catalog a part identifier belongs to
type Supplier string

const (
	SupplierPrimary Supplier = "PRIMARY"
	SupplierRemote  Supplier = "REMOTE"
)

// ParseSupplier returns the supplier for a raw string, false if unrecognized
func ParseSupplier(s string) (Supplier, bool) {
	switch Supplier(strings.ToUpper(strings.TrimSpace(s))) {
	case SupplierPrimary:
		return SupplierPrimary, true
	case SupplierRemote:
		return SupplierRemote, true
	}
	return "", false
}

// AllSuppliers lists the closed set of supported suppliers
func AllSuppliers() []Supplier {
	return []Supplier{SupplierPrimary, SupplierRemote}
}

// CanonicalStyle is the supplier-agnostic identity for one product line.
// StyleNumber is the natural key: trimmed, uppercased, unique.
type CanonicalStyle struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StyleNumber string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_canonical_styles_number" json:"styleNumber"`
	DisplayName *string   `gorm:"type:varchar(500)" json:"displayName,omitempty"`
	Brand       *string   `gorm:"type:varchar(255);index:idx_canonical_styles_brand" json:"brand,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	Links []SupplierLink `gorm:"foreignKey:CanonicalStyleID" json:"links,omitempty"`
}

// TableName specifies the table name for CanonicalStyle
func (CanonicalStyle) TableName() string {
	return "canonical_styles"
}

// LinkedSuppliers returns the distinct suppliers with a link to this style
func (s *CanonicalStyle) LinkedSuppliers() []Supplier {
	seen := make(map[Supplier]bool, len(s.Links))
	suppliers := make([]Supplier, 0, len(s.Links))
	for _, l := range s.Links {
		if !seen[l.Supplier] {
			seen[l.Supplier] = true
			suppliers = append(suppliers, l.Supplier)
		}
	}
	return suppliers
}

// LinkFor returns the link for one supplier, nil if the style has none
func (s *CanonicalStyle) LinkFor(supplier Supplier) *SupplierLink {
	for i := range s.Links {
		if s.Links[i].Supplier == supplier {
			return &s.Links[i]
		}
	}
	return nil
}

// SupplierLink maps a canonical style to one supplier's part identifier.
// A (supplier, supplierPartId) pair resolves to exactly one canonical style.
type SupplierLink struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CanonicalStyleID uuid.UUID `gorm:"type:uuid;not null;index:idx_supplier_links_style" json:"canonicalStyleId"`
	Supplier         Supplier  `gorm:"type:varchar(20);not null;uniqueIndex:idx_supplier_links_part" json:"supplier"`
	SupplierPartID   string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_supplier_links_part" json:"supplierPartId"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`

	CanonicalStyle *CanonicalStyle `gorm:"foreignKey:CanonicalStyleID" json:"canonicalStyle,omitempty"`
}

// TableName specifies the table name for SupplierLink
func (SupplierLink) TableName() string {
	return "supplier_links"
}

// NormalizeStyleNumber applies the canonical style number normalization
func NormalizeStyleNumber(styleNumber string) string {
	return strings.ToUpper(strings.TrimSpace(styleNumber))
}

// NormalizePartID applies the canonical supplier part id normalization
func NormalizePartID(partID string) string {
	return strings.ToUpper(strings.TrimSpace(partID))
}
