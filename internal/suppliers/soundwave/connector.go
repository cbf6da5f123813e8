// Package soundwave ingests the Soundwave wholesale feed, a paginated JSON
// REST API with both page-number and since_id continuation.
package soundwave

import (
	"context"
	"log/slog"
	"time"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/suppliers"
	"github.com/soundbridge-av/soundbridge/internal/suppliers/paginate"
)

// Slug identifies this supplier in the registry and the suppliers table.
const Slug = "soundwave"

// Config carries feed credentials and pacing.
type Config struct {
	BaseURL  string
	APIToken string
	PageSize int
	// Delay is the courtesy pause between page fetches.
	Delay time.Duration
}

// Connector wires the paginated feed into the shared sync runner.
type Connector struct {
	client *Client
	runner *suppliers.Runner
}

var _ suppliers.Connector = (*Connector)(nil)

// New builds the connector.
func New(cfg Config, repo suppliers.Repository, products catalog.Repository, logger *slog.Logger) *Connector {
	client := NewClient(cfg.BaseURL, cfg.APIToken)
	controller := paginate.New(client, paginate.Config{
		PageSize: cfg.PageSize,
		Delay:    cfg.Delay,
	}, logger)
	return &Connector{
		client: client,
		runner: suppliers.NewRunner(Slug, fetcherFunc(controller.FetchAll), catalog.NewTransformer(Slug), repo, products, logger),
	}
}

type fetcherFunc func(ctx context.Context, limit int) ([]catalog.SourceRecord, []string, error)

func (f fetcherFunc) Fetch(ctx context.Context, limit int) ([]catalog.SourceRecord, []string, error) {
	return f(ctx, limit)
}

// Supplier returns the supplier slug.
func (c *Connector) Supplier() string { return Slug }

// TestConnection checks the feed answers an authenticated one-item page.
func (c *Connector) TestConnection(ctx context.Context) error {
	_, err := c.client.FetchPage(ctx, 1, 1)
	return err
}

// SyncProducts runs one ingestion session.
func (c *Connector) SyncProducts(ctx context.Context, opts suppliers.SyncOptions) (suppliers.SyncResult, error) {
	return c.runner.Run(ctx, opts)
}
