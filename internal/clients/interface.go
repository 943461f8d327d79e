package clients

import (
	"context"
	"regexp"
	"time"

	"catalog-resolver-service/internal/models"
)

// Fetch sources
const (
	SourceRest     = "rest"
	SourceFallback = "fallback"
	SourceCatalog  = "catalog"
)

// SupplierClient is the capability every supplier strategy implements. Adding
// a third supplier means one new implementation plus a classifier rule.
type SupplierClient interface {
	// Supplier returns which supplier this client serves
	Supplier() models.Supplier

	// FetchProductWithFallback resolves a supplier part id into the common
	// product shape, degrading to a secondary representation with warnings
	// instead of failing when the primary path cannot be shaped
	FetchProductWithFallback(ctx context.Context, supplierPartID string) (*FetchResult, error)
}

// FetchResult is the common fetch envelope consumers receive from any supplier
type FetchResult struct {
	Product   *ProductData       `json:"product"`
	Inventory []InventoryRowData `json:"inventory,omitempty"`
	Source    string             `json:"source"`
	Warnings  []string           `json:"warnings"`
	FetchedAt time.Time          `json:"fetchedAt"`
}

// ProductData is the supplier-neutral product shape
type ProductData struct {
	SupplierPartID string      `json:"supplierPartId"`
	Name           string      `json:"name"`
	Brand          string      `json:"brand,omitempty"`
	Colors         []ColorData `json:"colors"`
	Sizes          []SizeData  `json:"sizes"`
	Media          []MediaData `json:"media"`
}

// ColorData is one color in the supplier-neutral shape
type ColorData struct {
	ColorCode string `json:"colorCode"`
	ColorName string `json:"colorName"`
	SwatchURL string `json:"swatchUrl,omitempty"`
}

// SizeData is one size in the supplier-neutral shape
type SizeData struct {
	SizeCode string `json:"sizeCode"`
}

// MediaData is one media asset in the supplier-neutral shape
type MediaData struct {
	URL       string `json:"url"`
	Kind      string `json:"kind"`
	ColorCode string `json:"colorCode,omitempty"`
}

// InventoryRowData is one (part, color, size) inventory row in the
// supplier-neutral shape, warehouse ids still supplier-local
type InventoryRowData struct {
	SupplierPartID string                  `json:"supplierPartId"`
	ColorCode      string                  `json:"colorCode"`
	SizeCode       string                  `json:"sizeCode"`
	TotalQty       int                     `json:"totalQty"`
	Warehouses     []models.WarehouseStock `json:"warehouses"`
}

// Remote part identifiers are either the supplier's numeric style id, a
// "B"-prefixed 8-digit SKU, or a zero-padded style number like 00760.
var remotePartPattern = regexp.MustCompile(`^(B\d{8}|\d{1,6})$`)

// IsRemotePart reports whether a part id is shaped like a remote-supplier
// identifier. Checked before any network call so primary parts never cost a
// round trip.
func IsRemotePart(partID string) bool {
	return remotePartPattern.MatchString(models.NormalizePartID(partID))
}

// ClassifyPart selects the supplier strategy for a part identifier
func ClassifyPart(partID string) models.Supplier {
	if IsRemotePart(partID) {
		return models.SupplierRemote
	}
	return models.SupplierPrimary
}

// Registry holds the closed set of supplier clients keyed by supplier
type Registry struct {
	clients map[models.Supplier]SupplierClient
}

// NewRegistry creates a registry from the given clients
func NewRegistry(clients ...SupplierClient) *Registry {
	r := &Registry{clients: make(map[models.Supplier]SupplierClient, len(clients))}
	for _, c := range clients {
		r.clients[c.Supplier()] = c
	}
	return r
}

// For returns the client for a supplier, nil if none registered
func (r *Registry) For(supplier models.Supplier) SupplierClient {
	return r.clients[supplier]
}

// ForPart returns the client selected by the part classifier
func (r *Registry) ForPart(partID string) SupplierClient {
	return r.For(ClassifyPart(partID))
}
