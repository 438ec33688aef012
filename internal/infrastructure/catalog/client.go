package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/orderdesk/backend/internal/domain"
	"golang.org/x/time/rate"
)

// pageLimit is the catalog API page size; a short page signals the last one.
const pageLimit = 100

// maxPages caps a single load so a misbehaving store cannot stall refreshes.
const maxPages = 50

// Client fetches store product catalogs from the remote catalog-study API.
type Client struct {
	httpClient  *http.Client
	apiToken    string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new catalog API client
func NewClient(apiToken, baseURL string) *Client {
	// The catalog API tolerates roughly 1000 requests per hour per token,
	// so 1000/3600 ≈ 0.278 requests/sec
	limiter := rate.NewLimiter(rate.Limit(0.278), 10) // burst of 10 requests

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiToken:    apiToken,
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// SetDebug toggles request logging.
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// rawProduct is the catalog API's product shape. Products arrive keyed by
// either "id" or "product_id" depending on the store's integration.
type rawProduct struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	FirstName  string `json:"1st_name"`
	SecondName string `json:"2nd_name"`
	ThirdName  string `json:"3rd_name"`
}

// pageResponse wraps one page of products. Some deployments nest the list
// under "data", others return it bare; both are accepted.
type pageResponse struct {
	Data json.RawMessage `json:"data"`
}

// Load fetches the full catalog for a store, page by page, stopping on a
// short page or the page cap. It fails with ErrCatalogUnavailable when the
// store has no products and ErrCatalogMalformed when the payload cannot be
// decoded.
func (c *Client) Load(ctx context.Context, storeID string) (domain.Catalog, error) {
	if storeID == "" {
		return nil, domain.ErrInvalidRequest
	}

	catalog := make(domain.Catalog)
	for page := 1; page <= maxPages; page++ {
		products, err := c.loadPage(ctx, storeID, page)
		if err != nil {
			return nil, err
		}

		for _, p := range products {
			entry := mapProduct(p)
			if entry.ID == "" {
				continue
			}
			catalog[entry.ID] = entry
		}

		if len(products) < pageLimit {
			break
		}
	}

	if len(catalog) == 0 {
		return nil, fmt.Errorf("%w: store %s", domain.ErrCatalogUnavailable, storeID)
	}

	if c.debug {
		log.Printf("[CATALOG] Loaded %d products for store %s", len(catalog), storeID)
	}
	return catalog, nil
}

// loadPage fetches one page, retrying transient failures up to 3 times.
func (c *Client) loadPage(ctx context.Context, storeID string, page int) ([]rawProduct, error) {
	endpoint := fmt.Sprintf("%s/web/v1/guest/automation/product-study/%s/%s",
		c.baseURL, url.PathEscape(c.apiToken), url.PathEscape(storeID))
	params := url.Values{}
	params.Add("page", fmt.Sprintf("%d", page))
	params.Add("limit", fmt.Sprintf("%d", pageLimit))
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "OrderDesk/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if c.debug {
				log.Printf("[CATALOG] Request error (attempt %d): %v", attempt, err)
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrCatalogAPIFailure, err)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: store %s", domain.ErrCatalogUnavailable, storeID)
		}
		if resp.StatusCode != http.StatusOK {
			if c.debug {
				log.Printf("[CATALOG] API error (attempt %d) - Status: %d, Body: %s", attempt, resp.StatusCode, string(body))
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrCatalogAPIFailure, resp.StatusCode)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		return decodePage(body)
	}

	return nil, lastErr
}

// decodePage accepts both the wrapped and the bare product-list payload.
func decodePage(body []byte) ([]rawProduct, error) {
	var wrapped pageResponse
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Data) > 0 {
		body = wrapped.Data
	}

	var products []rawProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogMalformed, err)
	}
	return products, nil
}
