// Package paginate walks paginated feed APIs with duplicate-id detection and
// a hard page ceiling so a misbehaving source can never loop a run forever.
package paginate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

// Row is one feed record with its stable source id.
type Row struct {
	ID     string
	Record catalog.SourceRecord
}

// Source exposes the two continuation strategies a feed may support.
// FetchPage is attempted first; FetchSince is the cursor fallback.
type Source interface {
	FetchPage(ctx context.Context, page, pageSize int) ([]Row, error)
	FetchSince(ctx context.Context, sinceID string, pageSize int) ([]Row, error)
}

// Controller drives page-by-page fetching.
type Controller struct {
	source   Source
	pageSize int
	maxPages int
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// Config tunes a controller.
type Config struct {
	PageSize int
	// MaxPages is the runaway ceiling; defaults to 100.
	MaxPages int
	// Delay is the fixed courtesy pause between successful page fetches.
	Delay time.Duration
}

// New builds a controller over a feed source.
func New(source Source, cfg Config, logger *slog.Logger) *Controller {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 100
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		source:   source,
		pageSize: cfg.PageSize,
		maxPages: cfg.MaxPages,
		limiter:  rate.NewLimiter(rate.Every(cfg.Delay), 1),
		logger:   logger,
	}
}

// FetchAll walks the feed until exhaustion, a ceiling, or the record limit.
// Reaching the page ceiling returns the gathered records together with
// shared.ErrSafetyLimit so the caller can finish the run with a warning.
func (c *Controller) FetchAll(ctx context.Context, limit int) ([]catalog.SourceRecord, []string, error) {
	var (
		records  []catalog.SourceRecord
		warnings []string
		seen     = make(map[string]struct{})
		lastID   string
	)

	for page := 1; ; page++ {
		if page > c.maxPages {
			return records, warnings, fmt.Errorf("paginate: page ceiling %d: %w", c.maxPages, shared.ErrSafetyLimit)
		}
		if limit > 0 && len(records) >= limit {
			return records, warnings, nil
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return records, warnings, err
		}

		rows, err := c.source.FetchPage(ctx, page, c.pageSize)
		if err != nil {
			c.logger.Warn("page fetch failed, trying cursor",
				slog.Int("page", page), slog.Any("error", err))
			rows, err = c.source.FetchSince(ctx, lastID, c.pageSize)
			if err != nil {
				if page == 1 {
					return nil, warnings, &shared.ConnectionError{Source: "feed", Err: err}
				}
				warnings = append(warnings, fmt.Sprintf("stopped at page %d: %v", page, err))
				return records, warnings, nil
			}
		}

		fresh := 0
		for _, row := range rows {
			if _, dup := seen[row.ID]; dup {
				continue
			}
			seen[row.ID] = struct{}{}
			records = append(records, row.Record)
			lastID = row.ID
			fresh++
		}

		// Exhausted: nothing new on this page, or a short page.
		if fresh == 0 || len(rows) < c.pageSize {
			return records, warnings, nil
		}
	}
}
