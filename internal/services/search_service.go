package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-resolver-service/internal/cache"
	"catalog-resolver-service/internal/clients"
	"catalog-resolver-service/internal/models"
	"catalog-resolver-service/internal/repository"
)

// Scoring weights. Code matches dominate, token matches accumulate, broad
// supplier coverage nudges ties.
const (
	scoreExactCode     = 120
	scorePrefixCode    = 95
	scoreSubstringCode = 70
	scoreTokenInCode   = 25
	scoreTokenInBrand  = 18
	scoreTokenInName   = 16
	scoreAllTokens     = 5
	coveragePerLink    = 4
	coverageCap        = 12
)

// Sort keys accepted by SearchCanonicalStyles
const (
	SortRelevance = "relevance"
	SortSupplier  = "supplier"
	SortPrice     = "price"
	SortStock     = "stock"
)

const candidateLimit = 200

// SearchOptions controls filtering, ordering and pagination
type SearchOptions struct {
	Limit       int
	Offset      int
	Suppliers   []string
	Sort        string
	InStockOnly bool
}

// SearchHit is one ranked result. Ephemeral, never persisted.
type SearchHit struct {
	CanonicalStyleID uuid.UUID         `json:"canonicalStyleId"`
	StyleNumber      string            `json:"styleNumber"`
	DisplayName      string            `json:"displayName"`
	Score            int               `json:"score"`
	MatchedSuppliers []models.Supplier `json:"matchedSuppliers"`
	ExactMatch       bool              `json:"exactMatch"`
}

// SearchResult is the ranked, paginated outcome of one query. DirectHit
// signals a single unambiguous exact match so callers may skip the result
// list and go straight to detail.
type SearchResult struct {
	Items     []SearchHit `json:"items"`
	Total     int         `json:"total"`
	DirectHit bool        `json:"directHit"`
}

// SearchService ranks canonical styles against free-text queries
type SearchService struct {
	styles    repository.StyleRepositoryInterface
	catalog   repository.CatalogRepositoryInterface
	suppliers *clients.Registry
	cache     *cache.Cache
	stockTTL  time.Duration
	logger    *logrus.Entry
}

// NewSearchService creates a new search service
func NewSearchService(
	styles repository.StyleRepositoryInterface,
	catalog repository.CatalogRepositoryInterface,
	suppliers *clients.Registry,
	c *cache.Cache,
	stockTTL time.Duration,
	logger *logrus.Logger,
) *SearchService {
	if stockTTL == 0 {
		stockTTL = 5 * time.Minute
	}
	return &SearchService{
		styles:    styles,
		catalog:   catalog,
		suppliers: suppliers,
		cache:     c,
		stockTTL:  stockTTL,
		logger:    logrus.NewEntry(logger).WithField("component", "search"),
	}
}

// SearchCanonicalStyles tokenizes the query, scores candidates from all
// supplier sources, then sorts, filters and paginates. An empty or whitespace
// query returns an empty result set, not an error and not the whole catalog.
func (s *SearchService) SearchCanonicalStyles(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return &SearchResult{Items: []SearchHit{}, Total: 0}, nil
	}

	exactToken := strings.ToUpper(trimmed)
	tokens := strings.Fields(strings.ToLower(trimmed))
	supplierFilter := parseSupplierFilter(opts.Suppliers)

	terms := make([]string, 0, len(tokens)+1)
	terms = append(terms, tokens...)
	if len(tokens) != 1 || !strings.EqualFold(tokens[0], exactToken) {
		terms = append(terms, exactToken)
	}

	candidates, err := s.styles.SearchCandidates(ctx, terms, candidateLimit)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(candidates))
	for i := range candidates {
		style := &candidates[i]

		matched := matchedSuppliers(style, supplierFilter)
		if len(supplierFilter) > 0 && len(matched) == 0 {
			continue
		}

		score, exact, ok := scoreStyle(style, exactToken, tokens, len(matched))
		if !ok {
			continue
		}

		displayName := ""
		if style.DisplayName != nil {
			displayName = *style.DisplayName
		}
		hits = append(hits, SearchHit{
			CanonicalStyleID: style.ID,
			StyleNumber:      style.StyleNumber,
			DisplayName:      displayName,
			Score:            score,
			MatchedSuppliers: matched,
			ExactMatch:       exact,
		})
	}

	s.sortHits(ctx, hits, opts.Sort)

	if opts.InStockOnly {
		hits = s.filterInStock(ctx, hits)
	}

	// Direct hit is decided on the hits that survive filtering: an exact match
	// hidden by inStockOnly must not claim the result is unambiguous
	total := len(hits)
	exactCount := 0
	for i := range hits {
		if hits[i].ExactMatch {
			exactCount++
		}
	}
	directHit := exactCount == 1

	// Pagination on the final ordered list
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(hits) {
		offset = len(hits)
	}
	hits = hits[offset:]
	if opts.Limit > 0 && opts.Limit < len(hits) {
		hits = hits[:opts.Limit]
	}

	return &SearchResult{Items: hits, Total: total, DirectHit: directHit}, nil
}

// parseSupplierFilter keeps only recognized supplier values. Unknown values
// are dropped, not errors; an empty remaining set means no constraint.
func parseSupplierFilter(raw []string) map[models.Supplier]bool {
	filter := make(map[models.Supplier]bool)
	for _, r := range raw {
		if supplier, ok := models.ParseSupplier(r); ok {
			filter[supplier] = true
		}
	}
	return filter
}

func matchedSuppliers(style *models.CanonicalStyle, filter map[models.Supplier]bool) []models.Supplier {
	linked := style.LinkedSuppliers()
	if len(filter) == 0 {
		return linked
	}
	matched := make([]models.Supplier, 0, len(linked))
	for _, s := range linked {
		if filter[s] {
			matched = append(matched, s)
		}
	}
	return matched
}

// scoreStyle applies the additive weight table. The code-match family
// (exact/prefix/substring) contributes its single highest-priority rule; token
// rules accumulate per token. A candidate matching no code rule with unmet
// tokens is excluded.
func scoreStyle(style *models.CanonicalStyle, exactToken string, tokens []string, supplierCount int) (int, bool, bool) {
	codes := make([]string, 0, 1+len(style.Links))
	codes = append(codes, style.StyleNumber)
	for _, l := range style.Links {
		codes = append(codes, strings.ToUpper(l.SupplierPartID))
	}

	score := 0
	exact := false
	codeMatched := false
	for _, code := range codes {
		if code == exactToken {
			score += scoreExactCode
			exact = true
			codeMatched = true
			break
		}
	}
	if !codeMatched {
		for _, code := range codes {
			if strings.HasPrefix(code, exactToken) {
				score += scorePrefixCode
				codeMatched = true
				break
			}
		}
	}
	if !codeMatched {
		for _, code := range codes {
			if strings.Contains(code, exactToken) {
				score += scoreSubstringCode
				codeMatched = true
				break
			}
		}
	}

	lowerCodes := make([]string, len(codes))
	for i, code := range codes {
		lowerCodes[i] = strings.ToLower(code)
	}
	brand := ""
	if style.Brand != nil {
		brand = strings.ToLower(*style.Brand)
	}
	name := ""
	if style.DisplayName != nil {
		name = strings.ToLower(*style.DisplayName)
	}

	allMatched := true
	for _, token := range tokens {
		tokenMatched := false
		for _, code := range lowerCodes {
			if strings.Contains(code, token) {
				score += scoreTokenInCode
				tokenMatched = true
				break
			}
		}
		if brand != "" && strings.Contains(brand, token) {
			score += scoreTokenInBrand
			tokenMatched = true
		}
		if name != "" && strings.Contains(name, token) {
			score += scoreTokenInName
			tokenMatched = true
		}
		if !tokenMatched {
			allMatched = false
		}
	}
	if allMatched && len(tokens) > 0 {
		score += scoreAllTokens
	}

	if !codeMatched && !allMatched {
		return 0, false, false
	}

	coverage := supplierCount * coveragePerLink
	if coverage > coverageCap {
		coverage = coverageCap
	}
	score += coverage

	return score, exact, true
}

// sortHits orders hits by the requested key. Relevance is the default;
// alternate keys reorder without re-scoring and stay stable for equal keys.
func (s *SearchService) sortHits(ctx context.Context, hits []SearchHit, sortKey string) {
	// Deterministic base order first: score desc, style number asc
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].StyleNumber < hits[j].StyleNumber
	})

	switch sortKey {
	case "", SortRelevance:
	case SortSupplier:
		sort.SliceStable(hits, func(i, j int) bool {
			return supplierSortKey(hits[i]) < supplierSortKey(hits[j])
		})
	case SortPrice:
		costs := make([]float64, len(hits))
		for i := range hits {
			costs[i] = s.blankCost(ctx, &hits[i])
		}
		sort.SliceStable(hits, func(i, j int) bool {
			return costs[i] < costs[j]
		})
	case SortStock:
		quantities := make([]int, len(hits))
		for i := range hits {
			quantities[i] = s.aggregateQuantity(ctx, &hits[i])
		}
		sort.SliceStable(hits, func(i, j int) bool {
			return quantities[i] > quantities[j]
		})
	default:
		s.logger.WithField("sort", sortKey).Debug("unknown sort key, using relevance")
	}
}

func supplierSortKey(hit SearchHit) string {
	names := make([]string, 0, len(hit.MatchedSuppliers))
	for _, s := range hit.MatchedSuppliers {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

const costUnknown = 1 << 30

// blankCost returns the primary supplier's base blank cost for price sorting,
// a large sentinel when unknown so priced styles come first
func (s *SearchService) blankCost(ctx context.Context, hit *SearchHit) float64 {
	style, err := s.styles.GetStyleByID(ctx, hit.CanonicalStyleID)
	if err != nil || style == nil {
		return costUnknown
	}
	link := style.LinkFor(models.SupplierPrimary)
	if link == nil {
		return costUnknown
	}
	v, err := s.cache.GetOrLoad(ctx, "cost:"+link.SupplierPartID, s.stockTTL, func(ctx context.Context) (interface{}, error) {
		cost, err := s.catalog.GetProductBaseBlankCost(ctx, link.SupplierPartID)
		if err != nil {
			return nil, err
		}
		if cost == nil {
			return float64(costUnknown), nil
		}
		return *cost, nil
	})
	if err != nil {
		return costUnknown
	}
	return v.(float64)
}

// filterInStock drops hits whose every linked supplier inventory sums to zero.
// Runs after sorting, before pagination. A supplier whose stock cannot be
// determined keeps the candidate: degraded upstreams must not hide products.
func (s *SearchService) filterInStock(ctx context.Context, hits []SearchHit) []SearchHit {
	filtered := hits[:0]
	for i := range hits {
		if s.aggregateQuantity(ctx, &hits[i]) != 0 {
			filtered = append(filtered, hits[i])
		}
	}
	return filtered
}

// aggregateQuantity sums inventory across all linked suppliers, -1 when no
// supplier could answer
func (s *SearchService) aggregateQuantity(ctx context.Context, hit *SearchHit) int {
	v, err := s.cache.GetOrLoad(ctx, "stock:"+hit.StyleNumber, s.stockTTL, func(ctx context.Context) (interface{}, error) {
		style, err := s.styles.GetStyleByID(ctx, hit.CanonicalStyleID)
		if err != nil {
			return nil, err
		}
		if style == nil {
			return 0, nil
		}

		total := 0
		answered := false
		for _, link := range style.Links {
			switch link.Supplier {
			case models.SupplierPrimary:
				rows, err := s.catalog.GetInventoryRows(ctx, link.SupplierPartID)
				if err != nil {
					continue
				}
				answered = true
				for _, row := range rows {
					total += row.TotalQty
				}
			default:
				client := s.suppliers.For(link.Supplier)
				if client == nil {
					continue
				}
				result, err := client.FetchProductWithFallback(ctx, link.SupplierPartID)
				if err != nil {
					s.logger.WithFields(logrus.Fields{
						"styleNumber": style.StyleNumber,
						"supplier":    link.Supplier,
					}).WithError(err).Debug("stock lookup failed")
					continue
				}
				answered = true
				for _, row := range result.Inventory {
					total += row.TotalQty
				}
			}
		}
		if !answered {
			return -1, nil
		}
		return total, nil
	})
	if err != nil {
		return -1
	}
	return v.(int)
}
