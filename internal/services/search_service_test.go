package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"catalog-resolver-service/internal/cache"
	"catalog-resolver-service/internal/clients"
	"catalog-resolver-service/internal/models"
)

// MockCatalogRepository is a mock implementation of CatalogRepositoryInterface
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) GetProductBySupplierPartID(ctx context.Context, supplierPartID string) (*models.Product, error) {
	args := m.Called(ctx, supplierPartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCatalogRepository) GetProductBaseBlankCost(ctx context.Context, supplierPartID string) (*float64, error) {
	args := m.Called(ctx, supplierPartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*float64), args.Error(1)
}

func (m *MockCatalogRepository) GetInventoryRows(ctx context.Context, supplierPartID string) ([]models.InventoryRow, error) {
	args := m.Called(ctx, supplierPartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.InventoryRow), args.Error(1)
}

// stubSupplierClient satisfies clients.SupplierClient with a canned response
type stubSupplierClient struct {
	supplier models.Supplier
	result   *clients.FetchResult
	err      error
}

func (c *stubSupplierClient) Supplier() models.Supplier { return c.supplier }

func (c *stubSupplierClient) FetchProductWithFallback(ctx context.Context, supplierPartID string) (*clients.FetchResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

func floatPtr(f float64) *float64 { return &f }

func makeStyle(number, displayName, brand string, links ...models.SupplierLink) models.CanonicalStyle {
	style := models.CanonicalStyle{ID: uuid.New(), StyleNumber: number, Links: links}
	if displayName != "" {
		style.DisplayName = &displayName
	}
	if brand != "" {
		style.Brand = &brand
	}
	return style
}

func makeLink(supplier models.Supplier, partID string) models.SupplierLink {
	return models.SupplierLink{ID: uuid.New(), Supplier: supplier, SupplierPartID: partID}
}

func newSearchService(styles *MockStyleRepository, catalog *MockCatalogRepository, registry *clients.Registry) *SearchService {
	if registry == nil {
		registry = clients.NewRegistry()
	}
	return NewSearchService(styles, catalog, registry, cache.New(), time.Minute, quietLogger())
}

func TestSearchExactCodeMatchIsDirectHit(t *testing.T) {
	styles := new(MockStyleRepository)
	service := newSearchService(styles, new(MockCatalogRepository), nil)

	candidates := []models.CanonicalStyle{
		makeStyle("PC430", "Port & Company Fan Favorite", "Port & Company",
			makeLink(models.SupplierPrimary, "PC430-NVY")),
		makeStyle("PC43", "Port & Company Core Tee", "Port & Company",
			makeLink(models.SupplierPrimary, "PC43-BLK")),
	}
	styles.On("SearchCandidates", mock.Anything, []string{"pc43"}, candidateLimit).
		Return(candidates, nil).Once()

	result, err := service.SearchCanonicalStyles(context.Background(), "PC43", SearchOptions{})
	require.NoError(t, err)

	assert.True(t, result.DirectHit)
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Items, 2)

	// exact: 120 code + 25 token-in-code + 5 all-tokens + 4 coverage
	assert.Equal(t, "PC43", result.Items[0].StyleNumber)
	assert.Equal(t, 154, result.Items[0].Score)
	assert.True(t, result.Items[0].ExactMatch)

	// prefix: 95 code + 25 token-in-code + 5 all-tokens + 4 coverage
	assert.Equal(t, "PC430", result.Items[1].StyleNumber)
	assert.Equal(t, 129, result.Items[1].Score)
	assert.False(t, result.Items[1].ExactMatch)
}

func TestSearchTwoExactMatchesIsNotDirectHit(t *testing.T) {
	styles := new(MockStyleRepository)
	service := newSearchService(styles, new(MockCatalogRepository), nil)

	// "5000" is both a canonical style number and another style's part id
	candidates := []models.CanonicalStyle{
		makeStyle("5000", "Gildan Heavy Cotton", "Gildan",
			makeLink(models.SupplierPrimary, "G5000")),
		makeStyle("G500", "Gildan Heavy Cotton Ladies", "Gildan",
			makeLink(models.SupplierRemote, "5000")),
	}
	styles.On("SearchCandidates", mock.Anything, mock.Anything, candidateLimit).
		Return(candidates, nil).Once()

	result, err := service.SearchCanonicalStyles(context.Background(), "5000", SearchOptions{})
	require.NoError(t, err)

	assert.False(t, result.DirectHit)
	assert.Equal(t, 2, result.Total)
}

func TestSearchSubstringCodeMatch(t *testing.T) {
	styles := new(MockStyleRepository)
	service := newSearchService(styles, new(MockCatalogRepository), nil)

	candidates := []models.CanonicalStyle{
		makeStyle("PC43", "Port & Company Core Tee", "Port & Company",
			makeLink(models.SupplierPrimary, "PC43-BLK")),
	}
	styles.On("SearchCandidates", mock.Anything, mock.Anything, candidateLimit).
		Return(candidates, nil).Once()

	result, err := service.SearchCanonicalStyles(context.Background(), "C43", SearchOptions{})
	require.NoError(t, err)

	// substring: 70 code + 25 token-in-code + 5 all-tokens + 4 coverage
	require.Len(t, result.Items, 1)
	assert.Equal(t, 104, result.Items[0].Score)
	assert.False(t, result.DirectHit)
}

func TestSearchBrandAndNameTokens(t *testing.T) {
	styles := new(MockStyleRepository)
	service := newSearchService(styles, new(MockCatalogRepository), nil)

	candidates := []models.CanonicalStyle{
		makeStyle("5250", "Hanes Tagless Tee", "Hanes",
			makeLink(models.SupplierRemote, "00520")),
	}
	styles.On("SearchCandidates", mock.Anything, mock.Anything, candidateLimit).
		Return(candidates, nil).Once()

	result, err := service.SearchCanonicalStyles(context.Background(), "hanes", SearchOptions{})
	require.NoError(t, err)

	// no code match: 18 brand + 16 name + 5 all-tokens + 4 coverage
	require.Len(t, result.Items, 1)
	assert.Equal(t, 43, result.Items[0].Score)
	assert.False(t, result.Items[0].ExactMatch)
	assert.False(t, result.DirectHit)
}

func TestSearchExcludesCandidatesWithUnmatchedTokens(t *testing.T) {
	styles := new(MockStyleRepository)
	service := newSearchService(styles, new(MockCatalogRepository), nil)

	candidates := []models.CanonicalStyle{
		makeStyle("5250", "Hanes Tagless Tee", "Hanes",
			makeLink(models.SupplierRemote, "00520")),
	}
	styles.On("SearchCandidates", mock.Anything, mock.Anything, candidateLimit).
		Return(candidates, nil).Once()

	// "hanes" matches, "hoodie" matches nothing and there is no code match
	result, err := service.SearchCanonicalStyles(context.Background(), "hanes hoodie", SearchOptions{})
	require.NoError(t, err)

	assert.Empty(t, result.Items)
	assert.Equal(t, 0, result.Total)
}

func TestSearchEmptyQueryReturnsEmptyResult(t *testing.T) {
	styles := new(MockStyleRepository)
	service := newSearchService(styles, new(MockCatalogRepository), nil)

	result, err := service.SearchCanonicalStyles(context.Background(), "   ", SearchOptions{})
	require.NoError(t, err)

	assert.Empty(t, result.Items)
	assert.Equal(t, 0, result.Total)
	assert.False(t, result.DirectHit)
	styles.AssertNotCalled(t, "SearchCandidates", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchSupplierFilter(t *testing.T) {
	styles := new(MockStyleRepository)
	service := newSearchService(styles, new(MockCatalogRepository), nil)

	candidates := []models.CanonicalStyle{
		makeStyle("PC43", "Port & Company Core Tee", "Port & Company",
			makeLink(models.SupplierPrimary, "PC43-BLK")),
		makeStyle("PC44", "Port & Company Long Sleeve Tee", "Port & Company",
			makeLink(models.SupplierRemote, "441")),
	}
	styles.On("SearchCandidates", mock.Anything, mock.Anything, candidateLimit).Return(candidates, nil)

	result, err := service.SearchCanonicalStyles(context.Background(), "tee",
		SearchOptions{Suppliers: []string{"remote"}})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "PC44", result.Items[0].StyleNumber)
	assert.Equal(t, []models.Supplier{models.SupplierRemote}, result.Items[0].MatchedSuppliers)
}

func TestSearchUnrecognizedSupplierFilterValuesAreDropped(t *testing.T) {
	styles := new(MockStyleRepository)
	service := newSearchService(styles, new(MockCatalogRepository), nil)

	candidates := []models.CanonicalStyle{
		makeStyle("PC43", "Port & Company Core Tee", "Port & Company",
			makeLink(models.SupplierPrimary, "PC43-BLK")),
		makeStyle("PC44", "Port & Company Long Sleeve Tee", "Port & Company",
			makeLink(models.SupplierRemote, "441")),
	}
	styles.On("SearchCandidates", mock.Anything, mock.Anything, candidateLimit).Return(candidates, nil)

	// Only unknown values left: no constraint applies
	result, err := service.SearchCanonicalStyles(context.Background(), "tee",
		SearchOptions{Suppliers: []string{"wholesale", "dropship"}})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestSearchPagination(t *testing.T) {
	styles := new(MockStyleRepository)
	service := newSearchService(styles, new(MockCatalogRepository), nil)

	candidates := []models.CanonicalStyle{
		makeStyle("A100", "Crew Tee", "", makeLink(models.SupplierPrimary, "A100-X")),
		makeStyle("A200", "Pocket Tee", "", makeLink(models.SupplierPrimary, "A200-X")),
		makeStyle("A300", "Ringer Tee", "", makeLink(models.SupplierPrimary, "A300-X")),
	}
	styles.On("SearchCandidates", mock.Anything, mock.Anything, candidateLimit).Return(candidates, nil)

	result, err := service.SearchCanonicalStyles(context.Background(), "tee",
		SearchOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Items, 2)
	// Equal scores tie-break on style number ascending
	assert.Equal(t, "A200", result.Items[0].StyleNumber)
	assert.Equal(t, "A300", result.Items[1].StyleNumber)
}

func TestSearchInStockOnly(t *testing.T) {
	styles := new(MockStyleRepository)
	catalog := new(MockCatalogRepository)
	registry := clients.NewRegistry(&stubSupplierClient{
		supplier: models.SupplierRemote,
		err:      errors.New("upstream down"),
	})
	service := newSearchService(styles, catalog, registry)

	stocked := makeStyle("A100", "Crew Tee", "", makeLink(models.SupplierPrimary, "A100-X"))
	empty := makeStyle("A200", "Pocket Tee", "", makeLink(models.SupplierPrimary, "A200-X"))
	unknown := makeStyle("A300", "Ringer Tee", "", makeLink(models.SupplierRemote, "300"))

	styles.On("SearchCandidates", mock.Anything, mock.Anything, candidateLimit).
		Return([]models.CanonicalStyle{stocked, empty, unknown}, nil)
	styles.On("GetStyleByID", mock.Anything, stocked.ID).Return(&stocked, nil)
	styles.On("GetStyleByID", mock.Anything, empty.ID).Return(&empty, nil)
	styles.On("GetStyleByID", mock.Anything, unknown.ID).Return(&unknown, nil)
	catalog.On("GetInventoryRows", mock.Anything, "A100-X").
		Return([]models.InventoryRow{{TotalQty: 3}, {TotalQty: 2}}, nil)
	catalog.On("GetInventoryRows", mock.Anything, "A200-X").
		Return([]models.InventoryRow{}, nil)

	result, err := service.SearchCanonicalStyles(context.Background(), "tee",
		SearchOptions{InStockOnly: true})
	require.NoError(t, err)

	// Zero-stock styles drop; a style whose stock cannot be determined stays
	require.Len(t, result.Items, 2)
	assert.Equal(t, "A100", result.Items[0].StyleNumber)
	assert.Equal(t, "A300", result.Items[1].StyleNumber)
}

func TestSearchDirectHitClearedWhenExactMatchFilteredOut(t *testing.T) {
	styles := new(MockStyleRepository)
	catalog := new(MockCatalogRepository)
	service := newSearchService(styles, catalog, nil)

	style := makeStyle("PC43", "Port & Company Core Tee", "Port & Company",
		makeLink(models.SupplierPrimary, "PC43-BLK"))
	styles.On("SearchCandidates", mock.Anything, mock.Anything, candidateLimit).
		Return([]models.CanonicalStyle{style}, nil)
	styles.On("GetStyleByID", mock.Anything, style.ID).Return(&style, nil)
	catalog.On("GetInventoryRows", mock.Anything, "PC43-BLK").
		Return([]models.InventoryRow{}, nil)

	// The only exact match has zero stock: it leaves the result set, and the
	// direct-hit flag must leave with it
	result, err := service.SearchCanonicalStyles(context.Background(), "PC43",
		SearchOptions{InStockOnly: true})
	require.NoError(t, err)

	assert.Empty(t, result.Items)
	assert.Equal(t, 0, result.Total)
	assert.False(t, result.DirectHit)
}

func TestSearchSortByStock(t *testing.T) {
	styles := new(MockStyleRepository)
	catalog := new(MockCatalogRepository)
	service := newSearchService(styles, catalog, nil)

	low := makeStyle("A100", "Crew Tee", "", makeLink(models.SupplierPrimary, "A100-X"))
	high := makeStyle("A200", "Pocket Tee", "", makeLink(models.SupplierPrimary, "A200-X"))

	styles.On("SearchCandidates", mock.Anything, mock.Anything, candidateLimit).
		Return([]models.CanonicalStyle{low, high}, nil)
	styles.On("GetStyleByID", mock.Anything, low.ID).Return(&low, nil)
	styles.On("GetStyleByID", mock.Anything, high.ID).Return(&high, nil)
	catalog.On("GetInventoryRows", mock.Anything, "A100-X").
		Return([]models.InventoryRow{{TotalQty: 5}}, nil)
	catalog.On("GetInventoryRows", mock.Anything, "A200-X").
		Return([]models.InventoryRow{{TotalQty: 40}}, nil)

	result, err := service.SearchCanonicalStyles(context.Background(), "tee",
		SearchOptions{Sort: SortStock})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, "A200", result.Items[0].StyleNumber)
	assert.Equal(t, "A100", result.Items[1].StyleNumber)
}

func TestSearchSortByPricePutsUnpricedLast(t *testing.T) {
	styles := new(MockStyleRepository)
	catalog := new(MockCatalogRepository)
	service := newSearchService(styles, catalog, nil)

	pricey := makeStyle("A100", "Crew Tee", "", makeLink(models.SupplierPrimary, "A100-X"))
	cheap := makeStyle("A200", "Pocket Tee", "", makeLink(models.SupplierPrimary, "A200-X"))
	unpriced := makeStyle("A300", "Ringer Tee", "", makeLink(models.SupplierRemote, "300"))

	styles.On("SearchCandidates", mock.Anything, mock.Anything, candidateLimit).
		Return([]models.CanonicalStyle{pricey, unpriced, cheap}, nil)
	styles.On("GetStyleByID", mock.Anything, cheap.ID).Return(&cheap, nil)
	styles.On("GetStyleByID", mock.Anything, pricey.ID).Return(&pricey, nil)
	styles.On("GetStyleByID", mock.Anything, unpriced.ID).Return(&unpriced, nil)
	catalog.On("GetProductBaseBlankCost", mock.Anything, "A100-X").Return(floatPtr(6.40), nil)
	catalog.On("GetProductBaseBlankCost", mock.Anything, "A200-X").Return(floatPtr(2.15), nil)

	result, err := service.SearchCanonicalStyles(context.Background(), "tee",
		SearchOptions{Sort: SortPrice})
	require.NoError(t, err)

	require.Len(t, result.Items, 3)
	assert.Equal(t, "A200", result.Items[0].StyleNumber)
	assert.Equal(t, "A100", result.Items[1].StyleNumber)
	assert.Equal(t, "A300", result.Items[2].StyleNumber)
}
