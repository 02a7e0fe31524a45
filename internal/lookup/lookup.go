// Package lookup resolves scanned barcodes to product names through the
// Open Food Facts API.
//
// Every failure is reported as "not found": callers only learn whether a
// prefill is available, never why it is not.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmynk/carttrack/internal/metrics"
)

const (
	// DefaultBaseURL is the public Open Food Facts endpoint.
	DefaultBaseURL = "https://world.openfoodfacts.org"
	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 5 * time.Second

	// MaxBarcodeLength is the longest code sent upstream. GS1 codes top out
	// at 14 digits; the extra room admits store-specific codes. Longer or
	// non-numeric codes are reported as a miss without a request.
	MaxBarcodeLength = 32

	unknownProduct = "Unknown Product"
	maxBodyBytes   = 1 << 20
)

// Product is the prefill data for an item found by barcode.
type Product struct {
	Name string
}

// Client looks up products by barcode.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another server, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the per-lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMetrics records hits and misses.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// productResponse is the subset of the v0 product payload we read.
type productResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName string `json:"product_name"`
		GenericName string `json:"generic_name"`
	} `json:"product"`
}

// Lookup returns the product for a barcode and whether one was found.
func (c *Client) Lookup(ctx context.Context, code string) (Product, bool) {
	code = strings.TrimSpace(code)
	product, err := c.fetch(ctx, code)
	found := err == nil
	c.metrics.Lookup(found)
	if err != nil {
		slog.Warn("Barcode lookup found no product", "barcode", code, "error", err)
		return Product{}, false
	}
	slog.Debug("Barcode lookup hit", "barcode", code, "name", product.Name)
	return product, true
}

func (c *Client) fetch(ctx context.Context, code string) (Product, error) {
	if !isBarcode(code) {
		return Product{}, fmt.Errorf("invalid barcode %q", code)
	}

	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Product{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Product{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Product{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload productResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return Product{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.Status != 1 {
		return Product{}, fmt.Errorf("product not found (status %d)", payload.Status)
	}

	name := strings.TrimSpace(payload.Product.ProductName)
	if name == "" {
		name = strings.TrimSpace(payload.Product.GenericName)
	}
	if name == "" {
		name = unknownProduct
	}
	return Product{Name: name}, nil
}

// isBarcode accepts the digit-only codes produced by EAN/UPC scanners.
func isBarcode(code string) bool {
	if code == "" || len(code) > MaxBarcodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
