// Package hifistudio ingests the Hifistudio retail storefront, which has no
// feed API. The catalog is crawled with a headless browser instead.
package hifistudio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/platform/browser"
	"github.com/soundbridge-av/soundbridge/internal/shared"
	"github.com/soundbridge-av/soundbridge/internal/suppliers"
)

// Slug identifies this supplier in the registry and the suppliers table.
const Slug = "hifistudio"

// Config points the crawl at the storefront.
type Config struct {
	BaseURL string
	// ListingPath is the category page expanded for product links.
	ListingPath string
}

// Connector wires the storefront crawl into the shared sync runner.
type Connector struct {
	baseURL string
	client  *http.Client
	runner  *suppliers.Runner
}

var _ suppliers.Connector = (*Connector)(nil)

// New builds the connector. source may be nil in processes that never crawl;
// the reachability check stays available either way.
func New(cfg Config, source browser.DriverSource, repo suppliers.Repository, products catalog.Repository, logger *slog.Logger) *Connector {
	if cfg.ListingPath == "" {
		cfg.ListingPath = "/products"
	}
	harnessCfg := browser.HarnessConfig{
		LoadMoreSelectors: []string{"button.load-more", ".pagination__more a"},
		LinkSelectors:     []string{".product-grid a.product-card", ".product-list a.product-link", "a[href*='/products/']"},
	}
	var newHarness harnessFactory
	if source != nil {
		newHarness = func(ctx context.Context) (pageHarness, context.CancelFunc) {
			driver, closeTab := source.NewDriver(ctx)
			return browser.NewHarness(driver, harnessCfg, logger), closeTab
		}
	}
	listingURL := strings.TrimRight(cfg.BaseURL, "/") + cfg.ListingPath
	fetcher := NewFetcher(newHarness, listingURL, logger)
	return &Connector{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		runner:  suppliers.NewRunner(Slug, fetcher, catalog.NewTransformer(Slug), repo, products, logger),
	}
}

// Supplier returns the supplier slug.
func (c *Connector) Supplier() string { return Slug }

// TestConnection checks the storefront answers a plain request. The browser
// is not involved; reachability is enough to report the site up.
func (c *Connector) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("hifistudio: build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return &shared.ConnectionError{Source: Slug, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= http.StatusInternalServerError {
		return &shared.ConnectionError{Source: Slug, Err: fmt.Errorf("storefront returned status %d", resp.StatusCode)}
	}
	return nil
}

// SyncProducts runs one crawl session.
func (c *Connector) SyncProducts(ctx context.Context, opts suppliers.SyncOptions) (suppliers.SyncResult, error) {
	return c.runner.Run(ctx, opts)
}
