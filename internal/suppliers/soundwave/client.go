package soundwave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/shared"
	"github.com/soundbridge-av/soundbridge/internal/suppliers/paginate"
)

// apiProduct mirrors one feed row.
type apiProduct struct {
	ID          int64             `json:"id"`
	SKU         string            `json:"sku"`
	Name        string            `json:"name"`
	Brand       string            `json:"brand"`
	Model       string            `json:"model"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	CostPrice   float64           `json:"cost_price"`
	Stock       []apiStock        `json:"stock"`
	Images      []string          `json:"images"`
	Specs       map[string]string `json:"specifications"`
}

type apiStock struct {
	Warehouse string `json:"warehouse"`
	Quantity  int    `json:"quantity"`
}

type productsResponse struct {
	Products []apiProduct `json:"products"`
}

// Client calls the Soundwave feed API. It implements paginate.Source.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ paginate.Source = (*Client)(nil)

// NewClient builds the feed client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchPage retrieves one page by page number.
func (c *Client) FetchPage(ctx context.Context, page, pageSize int) ([]paginate.Row, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(pageSize))
	return c.fetch(ctx, query)
}

// FetchSince retrieves one page by cursor, the fallback strategy.
func (c *Client) FetchSince(ctx context.Context, sinceID string, pageSize int) ([]paginate.Row, error) {
	query := url.Values{}
	if sinceID != "" {
		query.Set("since_id", sinceID)
	}
	query.Set("limit", strconv.Itoa(pageSize))
	return c.fetch(ctx, query)
}

func (c *Client) fetch(ctx context.Context, query url.Values) ([]paginate.Row, error) {
	endpoint := fmt.Sprintf("%s/products?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("soundwave: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &shared.ConnectionError{Source: Slug, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &shared.ConnectionError{Source: Slug, Err: fmt.Errorf("feed rejected credentials: status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("soundwave: feed returned status %d", resp.StatusCode)
	}

	var payload productsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("soundwave: decode response: %w", err)
	}

	rows := make([]paginate.Row, 0, len(payload.Products))
	for _, p := range payload.Products {
		rows = append(rows, paginate.Row{
			ID:     strconv.FormatInt(p.ID, 10),
			Record: toRecord(p),
		})
	}
	return rows, nil
}

func toRecord(p apiProduct) catalog.SourceRecord {
	stock := make(map[string]int, len(p.Stock))
	for _, s := range p.Stock {
		if s.Warehouse == "" {
			continue
		}
		stock[s.Warehouse] = s.Quantity
	}
	return catalog.SourceRecord{
		Name:           p.Name,
		SKU:            p.SKU,
		SupplierSKU:    strconv.FormatInt(p.ID, 10),
		Model:          p.Model,
		Brand:          p.Brand,
		Category:       p.Category,
		Description:    p.Description,
		CostPrice:      p.CostPrice,
		Stock:          stock,
		Images:         p.Images,
		Specifications: p.Specs,
	}
}
