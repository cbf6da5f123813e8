// Package avitech ingests the Avitech distributor catalog, published as a
// single XML export refreshed a few times per day.
package avitech

import (
	"context"
	"log/slog"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/suppliers"
)

// Slug identifies this supplier in the registry and the suppliers table.
const Slug = "avitech"

// Connector wires the XML fetcher into the shared sync runner.
type Connector struct {
	fetcher *Fetcher
	runner  *suppliers.Runner
}

var _ suppliers.Connector = (*Connector)(nil)

// New builds the connector.
func New(feedURL string, repo suppliers.Repository, products catalog.Repository, logger *slog.Logger) *Connector {
	fetcher := NewFetcher(feedURL)
	return &Connector{
		fetcher: fetcher,
		runner:  suppliers.NewRunner(Slug, fetcher, catalog.NewTransformer(Slug), repo, products, logger),
	}
}

// Supplier returns the supplier slug.
func (c *Connector) Supplier() string { return Slug }

// TestConnection checks the export is reachable and decodes.
func (c *Connector) TestConnection(ctx context.Context) error {
	return c.fetcher.Probe(ctx)
}

// SyncProducts runs one ingestion session.
func (c *Connector) SyncProducts(ctx context.Context, opts suppliers.SyncOptions) (suppliers.SyncResult, error) {
	return c.runner.Run(ctx, opts)
}
