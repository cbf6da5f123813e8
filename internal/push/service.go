// Package push publishes unlisted catalog products to the downstream
// storefront. Matching is tiered; the idempotency ledger plus an in-run seen
// set guarantee a product is created at most once.
package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/observability"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

// RunOptions tunes one push run.
type RunOptions struct {
	// DryRun exercises the full matching pipeline but suppresses creation
	// and ledger writes.
	DryRun bool
	// Limit caps examined products. Zero means no cap.
	Limit int
}

// RunResult summarises one push run.
type RunResult struct {
	Examined      int      `json:"examined"`
	Created       int      `json:"created"`
	Matched       int      `json:"matched"`
	AlreadyPushed int      `json:"already_pushed"`
	Failed        int      `json:"failed"`
	Errors        []string `json:"errors,omitempty"`
	DryRun        bool     `json:"dry_run"`
}

// Service orchestrates push runs. Runs are strictly sequential, one product
// at a time, paced by a fixed post-creation delay.
type Service struct {
	products catalog.Repository
	ledger   Ledger
	store    Storefront
	matcher  *Matcher
	semantic *SemanticMatcher
	limiter  *rate.Limiter
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService wires the push service. semantic may be nil to disable the
// completion fallback.
func NewService(products catalog.Repository, ledger Ledger, store Storefront, matcher *Matcher, semantic *SemanticMatcher, createDelay time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if createDelay <= 0 {
		createDelay = 500 * time.Millisecond
	}
	return &Service{
		products: products,
		ledger:   ledger,
		store:    store,
		matcher:  matcher,
		semantic: semantic,
		limiter:  rate.NewLimiter(rate.Every(createDelay), 1),
		metrics:  metrics,
		logger:   logger,
	}
}

// Run executes one push run over the eligible catalog.
func (s *Service) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	result := RunResult{DryRun: opts.DryRun}

	products, err := s.products.ActiveSellable(ctx)
	if err != nil {
		return result, fmt.Errorf("push: load candidates: %w", err)
	}
	pushed, err := s.ledger.Keys(ctx)
	if err != nil {
		return result, err
	}
	listings, err := s.store.Listings(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrSafetyLimit) {
			return result, fmt.Errorf("push: load downstream listings: %w", err)
		}
		// A truncated listing walk only weakens matching; creation stays
		// guarded by the ledger.
		result.Errors = append(result.Errors, err.Error())
		s.logger.Warn("downstream listing walk truncated", slog.Any("error", err))
	}

	s.logger.Info("push run started",
		slog.Int("candidates", len(products)),
		slog.Int("downstream_listings", len(listings)),
		slog.Bool("dry_run", opts.DryRun))

	// seen is the session-local half of the idempotency pair. The ledger
	// covers prior runs; seen covers earlier items of this run.
	seen := make(map[string]struct{})

	for _, p := range products {
		if opts.Limit > 0 && result.Examined >= opts.Limit {
			break
		}
		result.Examined++

		key := NormalizeSKU(p.SKU)
		if _, done := pushed[key]; done {
			result.AlreadyPushed++
			continue
		}
		if _, done := seen[key]; done {
			result.AlreadyPushed++
			continue
		}

		match, shortlist := s.matcher.Match(p, listings)
		if match == nil && s.semantic != nil && len(shortlist) > 0 {
			match = s.semantic.Judge(ctx, p.ProductName, shortlist)
		}
		if match != nil {
			result.Matched++
			s.metrics.ObservePushOutcome("skipped")
			s.logger.Info("product already listed, skipped",
				slog.String("sku", p.SKU),
				slog.String("downstream_id", match.Listing.ID),
				slog.Int("tier", match.Tier),
				slog.Float64("confidence", match.Confidence))
			continue
		}

		payload := BuildPayload(p)
		if opts.DryRun {
			result.Created++
			seen[key] = struct{}{}
			s.logger.Info("dry-run: would create product",
				slog.String("sku", p.SKU),
				slog.String("name", payload.Name))
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("push: pacing wait: %w", err)
		}
		downstreamID, err := s.store.CreateProduct(ctx, payload)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("create %s: %v", p.SKU, err))
			s.metrics.ObservePushOutcome("failed")
			s.logger.Error("product creation failed", slog.String("sku", p.SKU), slog.Any("error", err))
			continue
		}

		if err := s.ledger.Record(ctx, key, downstreamID); err != nil {
			if errors.Is(err, ErrAlreadyPushed) {
				// Another worker won the race; the unique constraint
				// did its job.
				result.AlreadyPushed++
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("record %s: %v", p.SKU, err))
			s.logger.Error("ledger append failed after creation",
				slog.String("sku", p.SKU),
				slog.String("downstream_id", downstreamID),
				slog.Any("error", err))
		}
		seen[key] = struct{}{}
		result.Created++
		s.metrics.ObservePushOutcome("created")
	}

	s.logger.Info("push run finished",
		slog.Int("examined", result.Examined),
		slog.Int("created", result.Created),
		slog.Int("matched", result.Matched),
		slog.Int("failed", result.Failed))
	return result, nil
}
