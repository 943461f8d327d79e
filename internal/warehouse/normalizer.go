package warehouse

import (
	"catalog-resolver-service/internal/models"
)

// displayNames maps supplier-local warehouse identifiers to one canonical
// display name per physical facility. Several suppliers shipped more than one
// identifier format for the same building over the years (numeric codes, short
// alpha codes); every alias row below was reviewed against the suppliers'
// published warehouse lists before being added. Two identifiers may share a
// display name only when they are the same facility.
var displayNames = map[models.Supplier]map[string]string{
	models.SupplierPrimary: {
		"1":  "Seattle, WA",
		"2":  "Cincinnati, OH",
		"3":  "Dallas, TX",
		"4":  "Reno, NV",
		"5":  "Robbinsville, NJ",
		"6":  "Jacksonville, FL",
		"7":  "Minneapolis, MN",
		"12": "Phoenix, AZ",
		// legacy alpha codes from the pre-2019 feed format
		"SEA": "Seattle, WA",
		"CIN": "Cincinnati, OH",
		"DAL": "Dallas, TX",
	},
	models.SupplierRemote: {
		"1":  "Bolingbrook, IL",
		"2":  "Olathe, KS",
		"3":  "McDonough, GA",
		"4":  "Reading, PA",
		"5":  "Robbinsville, NJ",
		"6":  "Reno, NV",
		"7":  "Dallas, TX",
		// short codes used by the SKU-level inventory endpoint
		"IL": "Bolingbrook, IL",
		"KS": "Olathe, KS",
		"GA": "McDonough, GA",
		"PA": "Reading, PA",
		"NJ": "Robbinsville, NJ",
		"NV": "Reno, NV",
		"TX": "Dallas, TX",
	},
}

// ResolveDisplayName maps a supplier-local warehouse identifier to its
// canonical display name. Unknown identifiers fall back to the raw id so a new
// upstream warehouse degrades gracefully instead of erroring.
func ResolveDisplayName(supplier models.Supplier, warehouseID string) string {
	if table, ok := displayNames[supplier]; ok {
		if name, ok := table[warehouseID]; ok {
			return name
		}
	}
	return warehouseID
}

// ResolvedStock is a warehouse stock line with its display name resolved
type ResolvedStock struct {
	WarehouseID string `json:"warehouseId"`
	DisplayName string `json:"displayName"`
	Quantity    int    `json:"quantity"`
}

// ResolveStocks resolves display names for a list of raw warehouse stocks,
// merging alias identifiers that name the same facility. Quantities are summed
// only across identifiers of the same physical warehouse; the first identifier
// seen for a facility is kept as the representative id.
func ResolveStocks(supplier models.Supplier, stocks []models.WarehouseStock) []ResolvedStock {
	index := make(map[string]int, len(stocks))
	resolved := make([]ResolvedStock, 0, len(stocks))
	for _, s := range stocks {
		name := ResolveDisplayName(supplier, s.WarehouseID)
		if i, ok := index[name]; ok {
			resolved[i].Quantity += s.Quantity
			continue
		}
		index[name] = len(resolved)
		resolved = append(resolved, ResolvedStock{
			WarehouseID: s.WarehouseID,
			DisplayName: name,
			Quantity:    s.Quantity,
		})
	}
	return resolved
}

// Mappings returns a copy of one supplier's identifier table, used by tests to
// audit alias groups
func Mappings(supplier models.Supplier) map[string]string {
	table := displayNames[supplier]
	out := make(map[string]string, len(table))
	for id, name := range table {
		out[id] = name
	}
	return out
}
