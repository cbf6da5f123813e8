package avitech

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

// feed mirrors the Avitech export document.
type feed struct {
	XMLName  xml.Name      `xml:"catalog"`
	Products []feedProduct `xml:"product"`
}

type feedProduct struct {
	SKU         string          `xml:"sku"`
	EAN         string          `xml:"ean"`
	Name        string          `xml:"name"`
	Brand       string          `xml:"brand"`
	Model       string          `xml:"model"`
	Category    string          `xml:"category"`
	Description string          `xml:"description"`
	CostPrice   float64         `xml:"price"`
	Warehouses  []feedWarehouse `xml:"stock>warehouse"`
	Images      []string        `xml:"images>image"`
	Specs       []feedSpec      `xml:"specifications>spec"`
}

type feedWarehouse struct {
	Code string `xml:"code,attr"`
	Qty  int    `xml:",chardata"`
}

type feedSpec struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// Fetcher downloads and decodes the export in one request.
type Fetcher struct {
	url    string
	client *http.Client
}

// NewFetcher builds the fetcher.
func NewFetcher(url string) *Fetcher {
	return &Fetcher{
		url: url,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Probe performs the cheap reachability and shape check: the export must
// respond and start decoding as a catalog document.
func (f *Fetcher) Probe(ctx context.Context) error {
	doc, err := f.download(ctx)
	if err != nil {
		return err
	}
	if len(doc.Products) == 0 {
		return &shared.ConnectionError{Source: Slug, Err: fmt.Errorf("export at %s contains no products", f.url)}
	}
	return nil
}

// Fetch retrieves the full catalog. Limit is applied by the runner; the
// export is always downloaded whole.
func (f *Fetcher) Fetch(ctx context.Context, limit int) ([]catalog.SourceRecord, []string, error) {
	doc, err := f.download(ctx)
	if err != nil {
		return nil, nil, err
	}

	records := make([]catalog.SourceRecord, 0, len(doc.Products))
	for _, p := range doc.Products {
		records = append(records, toRecord(p))
	}
	return records, nil, nil
}

func (f *Fetcher) download(ctx context.Context) (*feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("avitech: build request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &shared.ConnectionError{Source: Slug, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, &shared.ConnectionError{Source: Slug, Err: fmt.Errorf("export returned status %d", resp.StatusCode)}
	}

	var doc feed
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, &shared.ConnectionError{Source: Slug, Err: fmt.Errorf("decode export: %w", err)}
	}
	return &doc, nil
}

func toRecord(p feedProduct) catalog.SourceRecord {
	stock := make(map[string]int, len(p.Warehouses))
	for _, w := range p.Warehouses {
		code := strings.TrimSpace(w.Code)
		if code == "" {
			continue
		}
		stock[code] = w.Qty
	}

	var specs map[string]string
	if len(p.Specs) > 0 {
		specs = make(map[string]string, len(p.Specs)+1)
		for _, s := range p.Specs {
			specs[s.Name] = strings.TrimSpace(s.Value)
		}
	}
	if p.EAN != "" {
		if specs == nil {
			specs = make(map[string]string, 1)
		}
		specs["ean"] = p.EAN
	}

	return catalog.SourceRecord{
		Name:           p.Name,
		SKU:            p.SKU,
		SupplierSKU:    p.SKU,
		Model:          p.Model,
		Brand:          p.Brand,
		Category:       p.Category,
		Description:    p.Description,
		CostPrice:      p.CostPrice,
		Stock:          stock,
		Images:         p.Images,
		Specifications: specs,
	}
}
