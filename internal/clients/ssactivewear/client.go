package ssactivewear

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"catalog-resolver-service/internal/apperrors"
	"catalog-resolver-service/internal/cache"
	"catalog-resolver-service/internal/clients"
	"catalog-resolver-service/internal/models"
)

const cacheKeyPrefix = "product:remote:"

// Client talks to the S&S Activewear REST API and shapes its responses into
// the common product representation. The SKU-level REST endpoints are the
// primary path; a legacy XML single-product lookup serves as the degraded
// fallback when the REST payload cannot be shaped.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	account     string
	apiKey      string
	rateLimiter *rate.Limiter
	retrier     *clients.Retrier
	breaker     *clients.CircuitBreaker
	cache       *cache.Cache
	cacheTTL    time.Duration
	logger      *logrus.Entry
}

// Config holds client construction parameters
type Config struct {
	BaseURL     string
	Account     string
	APIKey      string
	Timeout     time.Duration
	RateLimit   float64 // requests per second
	CacheTTL    time.Duration
	RetryConfig *clients.RetryConfig
}

// NewClient creates a new S&S Activewear API client
func NewClient(cfg Config, c *cache.Cache, logger *logrus.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RateLimit
	if rps == 0 {
		rps = 2
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		account:     cfg.Account,
		apiKey:      cfg.APIKey,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
		retrier:     clients.NewRetrier(cfg.RetryConfig),
		breaker:     clients.NewCircuitBreaker(5, 30*time.Second),
		cache:       c,
		cacheTTL:    ttl,
		logger:      logrus.NewEntry(logger).WithField("component", "ssactivewear_client"),
	}
}

// Supplier returns the supplier this client serves
func (c *Client) Supplier() models.Supplier {
	return models.SupplierRemote
}

// FetchProductWithFallback resolves a part id to SKU-level product and
// inventory data. Results pass through the TTL cache; a failed fetch caches
// nothing.
func (c *Client) FetchProductWithFallback(ctx context.Context, supplierPartID string) (*clients.FetchResult, error) {
	partID := models.NormalizePartID(supplierPartID)
	if partID == "" {
		return nil, apperrors.NewValidationError("supplierPartId", "must not be empty")
	}
	if !clients.IsRemotePart(partID) {
		return nil, apperrors.NewValidationError("supplierPartId",
			fmt.Sprintf("%q is not a remote supplier part identifier", supplierPartID))
	}

	v, err := c.cache.GetOrLoad(ctx, cacheKeyPrefix+partID, c.cacheTTL, func(ctx context.Context) (interface{}, error) {
		return c.fetch(ctx, partID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*clients.FetchResult), nil
}

// InvalidateCache drops every cached remote product lookup
func (c *Client) InvalidateCache() int {
	return c.cache.ClearPrefix(cacheKeyPrefix)
}

func (c *Client) fetch(ctx context.Context, partID string) (*clients.FetchResult, error) {
	var warnings []string

	if c.breaker.Allow() {
		result, err := c.fetchREST(ctx, partID)
		if err == nil {
			c.breaker.RecordSuccess()
			result.Warnings = warnings
			result.FetchedAt = time.Now()
			return result, nil
		}
		c.breaker.RecordFailure()
		if apperrors.IsValidation(err) {
			return nil, err
		}
		warnings = append(warnings, fmt.Sprintf("rest path failed, using fallback lookup: %v", err))
		c.logger.WithField("partId", partID).WithError(err).Warn("REST product fetch failed, trying fallback")
	} else {
		warnings = append(warnings, "rest path circuit open, using fallback lookup")
	}

	product, err := c.fetchFallback(ctx, partID)
	if err != nil {
		return nil, err
	}
	return &clients.FetchResult{
		Product:   product,
		Source:    clients.SourceFallback,
		Warnings:  warnings,
		FetchedAt: time.Now(),
	}, nil
}

// styleRecord is a row from GET /styles/?search=
type styleRecord struct {
	StyleID   int    `json:"styleID"`
	PartNum   string `json:"partNumber"`
	StyleName string `json:"styleName"`
	BrandName string `json:"brandName"`
	Title     string `json:"title"`
}

// skuRecord is a row from GET /products/?style= or ?partnumber=
type skuRecord struct {
	SKU              string  `json:"sku"`
	StyleID          int     `json:"styleID"`
	ColorCode        string  `json:"colorCode"`
	ColorName        string  `json:"colorName"`
	ColorSwatchImage string  `json:"colorSwatchImage"`
	ColorFrontImage  string  `json:"colorFrontImage"`
	SizeName         string  `json:"sizeName"`
	Qty              int     `json:"qty"`
	CustomerPrice    float64 `json:"customerPrice"`
	Warehouses       []struct {
		WarehouseAbbr string `json:"warehouseAbbr"`
		Qty           int    `json:"qty"`
	} `json:"warehouses"`
}

func (c *Client) fetchREST(ctx context.Context, partID string) (*clients.FetchResult, error) {
	style, err := c.lookupStyle(ctx, partID)
	if err != nil {
		return nil, err
	}

	body, err := c.doRequest(ctx, "/products/", url.Values{"style": {fmt.Sprint(style.StyleID)}})
	if err != nil {
		return nil, err
	}

	var skus []skuRecord
	if err := json.Unmarshal(body, &skus); err != nil {
		return nil, fmt.Errorf("failed to parse products response: %w", err)
	}
	if len(skus) == 0 {
		return nil, fmt.Errorf("products response contained no SKU rows for style %d", style.StyleID)
	}

	product, inventory := shapeSkus(partID, style, skus)
	return &clients.FetchResult{
		Product:   product,
		Inventory: inventory,
		Source:    clients.SourceRest,
	}, nil
}

// lookupStyle resolves a human part identifier to the supplier's internal
// style record. Pure numeric ids are already style ids and skip the search.
func (c *Client) lookupStyle(ctx context.Context, partID string) (*styleRecord, error) {
	query := url.Values{"search": {partID}}
	body, err := c.doRequest(ctx, "/styles/", query)
	if err != nil {
		return nil, err
	}

	var styles []styleRecord
	if err := json.Unmarshal(body, &styles); err != nil {
		return nil, fmt.Errorf("failed to parse styles response: %w", err)
	}
	if len(styles) == 0 {
		return nil, &apperrors.UpstreamUnavailableError{
			Supplier:   string(models.SupplierRemote),
			StatusCode: http.StatusNotFound,
			Err:        fmt.Errorf("no style matched part %s", partID),
		}
	}
	return &styles[0], nil
}

// shapeSkus folds SKU rows into the common product shape plus inventory rows
func shapeSkus(partID string, style *styleRecord, skus []skuRecord) (*clients.ProductData, []clients.InventoryRowData) {
	product := &clients.ProductData{
		SupplierPartID: partID,
		Name:           style.Title,
		Brand:          style.BrandName,
		Colors:         []clients.ColorData{},
		Sizes:          []clients.SizeData{},
		Media:          []clients.MediaData{},
	}
	if product.Name == "" {
		product.Name = style.StyleName
	}

	seenColors := make(map[string]bool)
	seenSizes := make(map[string]bool)
	inventory := make([]clients.InventoryRowData, 0, len(skus))

	for _, sku := range skus {
		if sku.ColorCode != "" && !seenColors[sku.ColorCode] {
			seenColors[sku.ColorCode] = true
			product.Colors = append(product.Colors, clients.ColorData{
				ColorCode: sku.ColorCode,
				ColorName: sku.ColorName,
				SwatchURL: sku.ColorSwatchImage,
			})
			if sku.ColorFrontImage != "" {
				product.Media = append(product.Media, clients.MediaData{
					URL:       sku.ColorFrontImage,
					Kind:      "image",
					ColorCode: sku.ColorCode,
				})
			}
		}
		if sku.SizeName != "" && !seenSizes[sku.SizeName] {
			seenSizes[sku.SizeName] = true
			product.Sizes = append(product.Sizes, clients.SizeData{SizeCode: sku.SizeName})
		}

		row := clients.InventoryRowData{
			SupplierPartID: partID,
			ColorCode:      sku.ColorCode,
			SizeCode:       sku.SizeName,
			TotalQty:       sku.Qty,
			Warehouses:     make([]models.WarehouseStock, 0, len(sku.Warehouses)),
		}
		for _, w := range sku.Warehouses {
			row.Warehouses = append(row.Warehouses, models.WarehouseStock{
				WarehouseID: w.WarehouseAbbr,
				Quantity:    w.Qty,
			})
		}
		inventory = append(inventory, row)
	}

	return product, inventory
}

// legacyProduct is the legacy XML single-product lookup payload
type legacyProduct struct {
	XMLName xml.Name `xml:"Product"`
	Style   string   `xml:"StyleName"`
	Title   string   `xml:"Title"`
	Brand   string   `xml:"BrandName"`
	Colors  []struct {
		Code string `xml:"Code,attr"`
		Name string `xml:",chardata"`
	} `xml:"Colors>Color"`
	Sizes []struct {
		Code string `xml:",chardata"`
	} `xml:"Sizes>Size"`
}

// fetchFallback hits the legacy XML endpoint. Lower fidelity: no inventory,
// no media, but enough product shape to keep callers working.
func (c *Client) fetchFallback(ctx context.Context, partID string) (*clients.ProductData, error) {
	body, err := c.doRequest(ctx, "/legacy/product/", url.Values{"partnumber": {partID}})
	if err != nil {
		return nil, err
	}

	var legacy legacyProduct
	if err := xml.Unmarshal(body, &legacy); err != nil {
		return nil, &apperrors.UpstreamUnavailableError{
			Supplier: string(models.SupplierRemote),
			Err:      fmt.Errorf("fallback payload unparseable: %w", err),
		}
	}

	product := &clients.ProductData{
		SupplierPartID: partID,
		Name:           legacy.Title,
		Brand:          legacy.Brand,
		Colors:         []clients.ColorData{},
		Sizes:          []clients.SizeData{},
		Media:          []clients.MediaData{},
	}
	if product.Name == "" {
		product.Name = legacy.Style
	}
	for _, color := range legacy.Colors {
		product.Colors = append(product.Colors, clients.ColorData{
			ColorCode: color.Code,
			ColorName: strings.TrimSpace(color.Name),
		})
	}
	for _, size := range legacy.Sizes {
		code := strings.TrimSpace(size.Code)
		if code != "" {
			product.Sizes = append(product.Sizes, clients.SizeData{SizeCode: code})
		}
	}
	return product, nil
}

// doRequest performs a rate-limited, retried GET with Basic auth and returns
// the response body. Non-2xx terminal responses become typed upstream errors.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	resp, err := c.retrier.DoHTTP(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.account, c.apiKey)
		req.Header.Set("Accept", "application/json")
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, &apperrors.UpstreamUnavailableError{
			Supplier: string(models.SupplierRemote),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.UpstreamUnavailableError{
			Supplier: string(models.SupplierRemote),
			Err:      err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperrors.UpstreamUnavailableError{
			Supplier:   string(models.SupplierRemote),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("GET %s returned %d", path, resp.StatusCode),
		}
	}

	return body, nil
}
