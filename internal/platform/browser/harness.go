package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soundbridge-av/soundbridge/internal/shared"
)

// HarnessConfig tunes the crawl loops. Zero values pick conservative
// defaults.
type HarnessConfig struct {
	ScrollFraction  float64
	SettleWait      time.Duration
	MaxScrollRounds int
	// StableRounds is how many consecutive height-stable scrolls end the
	// infinite-scroll loop.
	StableRounds int
	// DialogLabels are candidate button texts for interstitial dismissal.
	DialogLabels []string
	// LoadMoreSelectors are tried in order until none remain clickable.
	LoadMoreSelectors []string
	MaxLoadMoreClicks int
	// LinkSelectors are layered: specific container selectors first, the
	// last entry acting as the global fallback scan.
	LinkSelectors []string
	// LinkExclude removes sidebar and navigation anchors from the global
	// scan.
	LinkExclude []string
}

func (c HarnessConfig) withDefaults() HarnessConfig {
	if c.ScrollFraction <= 0 {
		c.ScrollFraction = 0.8
	}
	if c.SettleWait <= 0 {
		c.SettleWait = 1200 * time.Millisecond
	}
	if c.MaxScrollRounds <= 0 {
		c.MaxScrollRounds = 40
	}
	if c.StableRounds <= 0 {
		c.StableRounds = 3
	}
	if len(c.DialogLabels) == 0 {
		c.DialogLabels = []string{"accept", "accept all", "agree", "ok", "got it", "continue"}
	}
	if c.MaxLoadMoreClicks <= 0 {
		c.MaxLoadMoreClicks = 25
	}
	if len(c.LinkSelectors) == 0 {
		c.LinkSelectors = []string{".product-grid a.product-link", ".product-list a", "a[href]"}
	}
	if len(c.LinkExclude) == 0 {
		c.LinkExclude = []string{"nav", "aside", "footer", ".sidebar", ".breadcrumbs"}
	}
	return c
}

// FieldSpec names one product field and the prioritized selectors that may
// yield it. Attr empty means text content.
type FieldSpec struct {
	Name      string
	Selectors []FieldSelector
}

// FieldSelector is one (selector, extractor) candidate.
type FieldSelector struct {
	Query string
	Attr  string
}

// Harness runs the scroll/click/extract loops over a PageDriver.
type Harness struct {
	driver PageDriver
	cfg    HarnessConfig
	logger *slog.Logger
}

// NewHarness builds a harness over an open driver.
func NewHarness(driver PageDriver, cfg HarnessConfig, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harness{driver: driver, cfg: cfg.withDefaults(), logger: logger}
}

// CollectProductLinks navigates the listing page, expands it fully and
// returns de-duplicated product links. Ceiling hits come back as warnings;
// the links gathered so far are always returned.
func (h *Harness) CollectProductLinks(ctx context.Context, listingURL string) ([]string, []string, error) {
	var warnings []string

	if err := h.driver.Navigate(ctx, listingURL); err != nil {
		return nil, nil, &shared.ConnectionError{Source: listingURL, Err: err}
	}

	if dismissed, err := h.driver.ClickButtonByLabel(ctx, h.cfg.DialogLabels); err != nil {
		h.logger.Warn("dialog dismissal failed", slog.Any("error", err))
	} else if dismissed {
		h.sleep(ctx)
	}

	if warn := h.scrollToEnd(ctx); warn != "" {
		warnings = append(warnings, warn)
	}
	if warn := h.clickLoadMore(ctx); warn != "" {
		warnings = append(warnings, warn)
	}

	links, err := h.collectLinks(ctx)
	if err != nil {
		return nil, warnings, err
	}
	return links, warnings, nil
}

// scrollToEnd runs the infinite-scroll loop: scroll a viewport fraction,
// settle, and stop once the page height is stable for StableRounds rounds.
func (h *Harness) scrollToEnd(ctx context.Context) string {
	stable := 0
	lastHeight, err := h.driver.PageHeight(ctx)
	if err != nil {
		h.logger.Warn("page height", slog.Any("error", err))
		return ""
	}

	for round := 0; round < h.cfg.MaxScrollRounds; round++ {
		if err := h.driver.ScrollBy(ctx, h.cfg.ScrollFraction); err != nil {
			h.logger.Warn("scroll", slog.Any("error", err))
			return ""
		}
		h.sleep(ctx)

		height, err := h.driver.PageHeight(ctx)
		if err != nil {
			h.logger.Warn("page height", slog.Any("error", err))
			return ""
		}
		if height <= lastHeight {
			stable++
			if stable >= h.cfg.StableRounds {
				return ""
			}
		} else {
			stable = 0
			lastHeight = height
		}
	}
	return fmt.Sprintf("scroll ceiling of %d rounds reached", h.cfg.MaxScrollRounds)
}

// clickLoadMore walks the candidate selectors until none remain clickable or
// the click ceiling is hit.
func (h *Harness) clickLoadMore(ctx context.Context) string {
	clicks := 0
	for clicks < h.cfg.MaxLoadMoreClicks {
		clickedAny := false
		for _, selector := range h.cfg.LoadMoreSelectors {
			clicked, err := h.driver.ClickFirst(ctx, selector)
			if err != nil {
				h.logger.Warn("load-more click", slog.String("selector", selector), slog.Any("error", err))
				continue
			}
			if clicked {
				clicks++
				clickedAny = true
				h.sleep(ctx)
				break
			}
		}
		if !clickedAny {
			return ""
		}
	}
	if len(h.cfg.LoadMoreSelectors) == 0 {
		return ""
	}
	return fmt.Sprintf("load-more ceiling of %d clicks reached", h.cfg.MaxLoadMoreClicks)
}

// collectLinks applies the layered selector strategy: the first selector
// yielding anything wins, the final entry being the global scan with
// navigation regions excluded.
func (h *Harness) collectLinks(ctx context.Context) ([]string, error) {
	for i, selector := range h.cfg.LinkSelectors {
		exclude := []string(nil)
		if i == len(h.cfg.LinkSelectors)-1 {
			exclude = h.cfg.LinkExclude
		}
		hrefs, err := h.driver.CollectHrefs(ctx, selector, exclude)
		if err != nil {
			return nil, err
		}
		if len(hrefs) > 0 {
			return dedupe(hrefs), nil
		}
	}
	return nil, nil
}

// ExtractFields visits one product page and tries each field's selectors in
// priority order. Missing fields are tolerated: absent keys, not errors.
func (h *Harness) ExtractFields(ctx context.Context, productURL string, fields []FieldSpec) (map[string]string, error) {
	if err := h.driver.Navigate(ctx, productURL); err != nil {
		return nil, fmt.Errorf("browser: visit %s: %w", productURL, err)
	}

	values := make(map[string]string, len(fields))
	for _, field := range fields {
		for _, sel := range field.Selectors {
			var value string
			var err error
			if sel.Attr == "" {
				value, err = h.driver.ExtractText(ctx, sel.Query)
			} else {
				value, err = h.driver.ExtractAttr(ctx, sel.Query, sel.Attr)
			}
			if err != nil {
				h.logger.Warn("field extraction", slog.String("field", field.Name), slog.Any("error", err))
				continue
			}
			if value != "" {
				values[field.Name] = value
				break
			}
		}
	}
	return values, nil
}

func (h *Harness) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(h.cfg.SettleWait):
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
