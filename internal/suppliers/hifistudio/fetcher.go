package hifistudio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/platform/browser"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

// pageHarness is the slice of the browser harness the fetcher drives.
type pageHarness interface {
	CollectProductLinks(ctx context.Context, listingURL string) ([]string, []string, error)
	ExtractFields(ctx context.Context, productURL string, fields []browser.FieldSpec) (map[string]string, error)
}

// harnessFactory opens a harness over a fresh browser tab. The returned func
// closes the tab. A factory is invoked once per crawl so each sync gets its
// own tab and timeout window.
type harnessFactory func(ctx context.Context) (pageHarness, context.CancelFunc)

// productFields lists the selectors tried per field, most specific first.
var productFields = []browser.FieldSpec{
	{Name: "name", Selectors: []browser.FieldSelector{
		{Query: ".product-detail h1"},
		{Query: "h1.product-title"},
		{Query: "h1"},
	}},
	{Name: "sku", Selectors: []browser.FieldSelector{
		{Query: ".product-sku"},
		{Query: "[itemprop=sku]"},
	}},
	{Name: "brand", Selectors: []browser.FieldSelector{
		{Query: ".product-brand"},
		{Query: "[itemprop=brand]"},
	}},
	{Name: "price", Selectors: []browser.FieldSelector{
		{Query: ".product-price .amount"},
		{Query: "[itemprop=price]", Attr: "content"},
		{Query: ".price"},
	}},
	{Name: "category", Selectors: []browser.FieldSelector{
		{Query: ".breadcrumbs li:last-child"},
	}},
	{Name: "description", Selectors: []browser.FieldSelector{
		{Query: ".product-description"},
		{Query: "[itemprop=description]"},
	}},
	{Name: "image", Selectors: []browser.FieldSelector{
		{Query: ".product-gallery img", Attr: "src"},
		{Query: "[itemprop=image]", Attr: "src"},
	}},
	{Name: "availability", Selectors: []browser.FieldSelector{
		{Query: ".stock-status"},
		{Query: "[itemprop=availability]", Attr: "href"},
	}},
}

// Fetcher crawls the Hifistudio storefront. Product data comes from rendered
// pages, so stock is a boolean availability flag rather than warehouse counts.
type Fetcher struct {
	newHarness harnessFactory
	listingURL string
	logger     *slog.Logger
}

// NewFetcher builds the crawl fetcher. newHarness may be nil when the process
// carries no browser session; Fetch then reports the source unreachable.
func NewFetcher(newHarness harnessFactory, listingURL string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{newHarness: newHarness, listingURL: listingURL, logger: logger}
}

// Fetch opens a fresh tab, expands the listing page, then visits each product
// page. A failed product visit becomes a warning; the crawl continues.
func (f *Fetcher) Fetch(ctx context.Context, limit int) ([]catalog.SourceRecord, []string, error) {
	if f.newHarness == nil {
		return nil, nil, &shared.ConnectionError{Source: Slug, Err: errors.New("no browser session in this process")}
	}
	harness, closeTab := f.newHarness(ctx)
	defer closeTab()

	links, warnings, err := harness.CollectProductLinks(ctx, f.listingURL)
	if err != nil {
		return nil, warnings, err
	}
	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}

	records := make([]catalog.SourceRecord, 0, len(links))
	for _, link := range links {
		fields, err := harness.ExtractFields(ctx, link, productFields)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("visit %s: %v", link, err))
			continue
		}
		record, err := toRecord(link, fields)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("parse %s: %v", link, err))
			continue
		}
		records = append(records, record)
	}
	return records, warnings, nil
}

func toRecord(link string, fields map[string]string) (catalog.SourceRecord, error) {
	name := strings.TrimSpace(fields["name"])
	if name == "" {
		return catalog.SourceRecord{}, fmt.Errorf("page has no product name")
	}

	sku := strings.TrimSpace(fields["sku"])
	if sku == "" {
		sku = skuFromURL(link)
	}

	price, err := parsePrice(fields["price"])
	if err != nil {
		return catalog.SourceRecord{}, err
	}

	available := parseAvailability(fields["availability"])

	var images []string
	if img := strings.TrimSpace(fields["image"]); img != "" {
		images = []string{img}
	}

	return catalog.SourceRecord{
		Name:         name,
		SKU:          sku,
		SupplierSKU:  sku,
		Brand:        strings.TrimSpace(fields["brand"]),
		Category:     strings.TrimSpace(fields["category"]),
		Description:  strings.TrimSpace(fields["description"]),
		CostPrice:    price,
		Images:       images,
		Availability: &available,
	}, nil
}

// parsePrice reads display prices such as "€1,099.00", "€ 1.099,00" and
// "1099". The right-most separator followed by exactly two digits is the
// decimal point.
func parsePrice(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			return r
		default:
			return -1
		}
	}, raw)
	if cleaned == "" {
		return 0, fmt.Errorf("no price on page")
	}

	lastDot := strings.LastIndexByte(cleaned, '.')
	lastComma := strings.LastIndexByte(cleaned, ',')
	sep := lastDot
	if lastComma > sep {
		sep = lastComma
	}

	if sep >= 0 && len(cleaned)-sep-1 == 2 {
		whole := strings.NewReplacer(".", "", ",", "").Replace(cleaned[:sep])
		cleaned = whole + "." + cleaned[sep+1:]
	} else {
		cleaned = strings.NewReplacer(".", "", ",", "").Replace(cleaned)
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q", raw)
	}
	return price, nil
}

func parseAvailability(raw string) bool {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return true
	}
	for _, marker := range []string{"out of stock", "outofstock", "sold out", "unavailable", "niet op voorraad", "uitverkocht"} {
		if strings.Contains(text, marker) {
			return false
		}
	}
	return true
}

// skuFromURL falls back to the URL slug when the page carries no SKU.
func skuFromURL(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return strings.Trim(link, "/")
	}
	path := strings.Trim(parsed.Path, "/")
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		path = path[idx+1:]
	}
	return path
}
