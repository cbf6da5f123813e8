package hifistudio

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soundbridge-av/soundbridge/internal/platform/browser"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"€1,099.00", 1099.00},
		{"€ 1.099,00", 1099.00},
		{"€119.00", 119.00},
		{"1099", 1099},
		{"2.499", 2499},
		{"EUR 89,95", 89.95},
	}
	for _, tc := range cases {
		got, err := parsePrice(tc.raw)
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.want, got, tc.raw)
	}

	_, err := parsePrice("call for price")
	require.Error(t, err)
}

func TestParseAvailability(t *testing.T) {
	require.True(t, parseAvailability("In stock"))
	require.True(t, parseAvailability("Op voorraad"))
	require.True(t, parseAvailability(""))
	require.False(t, parseAvailability("Out of stock"))
	require.False(t, parseAvailability("https://schema.org/OutOfStock"))
	require.False(t, parseAvailability("Uitverkocht"))
}

func TestSkuFromURL(t *testing.T) {
	require.Equal(t, "wiim-pro-streamer", skuFromURL("https://hifistudio.example/products/wiim-pro-streamer"))
	require.Equal(t, "kef-ls50", skuFromURL("https://hifistudio.example/products/kef-ls50/"))
}

type fakeHarness struct {
	links  []string
	warns  []string
	pages  map[string]map[string]string
	visits []string
}

// factoryFor wraps the fake so the fetcher opens it like a real tab, counting
// opens and closes.
func factoryFor(h *fakeHarness, opens, closes *int) harnessFactory {
	return func(ctx context.Context) (pageHarness, context.CancelFunc) {
		*opens++
		return h, func() { *closes++ }
	}
}

func (f *fakeHarness) CollectProductLinks(ctx context.Context, listingURL string) ([]string, []string, error) {
	return f.links, f.warns, nil
}

func (f *fakeHarness) ExtractFields(ctx context.Context, productURL string, fields []browser.FieldSpec) (map[string]string, error) {
	f.visits = append(f.visits, productURL)
	page, ok := f.pages[productURL]
	if !ok {
		return nil, fmt.Errorf("timeout")
	}
	return page, nil
}

func TestFetchBuildsRecordsAndToleratesBadPages(t *testing.T) {
	harness := &fakeHarness{
		links: []string{
			"https://shop.example/products/wiim-pro",
			"https://shop.example/products/broken",
			"https://shop.example/products/kef-ls50",
		},
		pages: map[string]map[string]string{
			"https://shop.example/products/wiim-pro": {
				"name":         "WiiM Pro Streamer",
				"sku":          "WIIM-PRO",
				"brand":        "WiiM",
				"price":        "€119.00",
				"availability": "In stock",
			},
			"https://shop.example/products/kef-ls50": {
				"name":         "KEF LS50 Meta",
				"price":        "€ 1.099,00",
				"availability": "Out of stock",
			},
		},
	}

	var opens, closes int
	records, warnings, err := NewFetcher(factoryFor(harness, &opens, &closes), "https://shop.example/products", nil).Fetch(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "broken")
	require.Len(t, records, 2)

	require.Equal(t, "WIIM-PRO", records[0].SKU)
	require.Equal(t, 119.00, records[0].CostPrice)
	require.NotNil(t, records[0].Availability)
	require.True(t, *records[0].Availability)

	// No SKU on the page falls back to the URL slug.
	require.Equal(t, "kef-ls50", records[1].SKU)
	require.Equal(t, 1099.00, records[1].CostPrice)
	require.False(t, *records[1].Availability)
}

func TestFetchHonorsLimit(t *testing.T) {
	harness := &fakeHarness{
		links: []string{
			"https://shop.example/products/a",
			"https://shop.example/products/b",
			"https://shop.example/products/c",
		},
		pages: map[string]map[string]string{
			"https://shop.example/products/a": {"name": "A", "price": "10"},
			"https://shop.example/products/b": {"name": "B", "price": "20"},
		},
	}

	var opens, closes int
	records, _, err := NewFetcher(factoryFor(harness, &opens, &closes), "https://shop.example/products", nil).Fetch(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Len(t, harness.visits, 2)
}

func TestFetchOpensFreshTabPerCrawl(t *testing.T) {
	harness := &fakeHarness{
		links: []string{"https://shop.example/products/a"},
		pages: map[string]map[string]string{
			"https://shop.example/products/a": {"name": "A", "price": "10"},
		},
	}

	var opens, closes int
	fetcher := NewFetcher(factoryFor(harness, &opens, &closes), "https://shop.example/products", nil)
	for i := 0; i < 3; i++ {
		_, _, err := fetcher.Fetch(context.Background(), 0)
		require.NoError(t, err)
	}
	require.Equal(t, 3, opens)
	require.Equal(t, 3, closes, "every crawl closes its tab")
}

func TestFetchWithoutBrowserSessionReportsUnreachable(t *testing.T) {
	_, _, err := NewFetcher(nil, "https://shop.example/products", nil).Fetch(context.Background(), 0)
	var connErr *shared.ConnectionError
	require.ErrorAs(t, err, &connErr)
}
