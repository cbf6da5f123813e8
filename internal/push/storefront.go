package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/soundbridge-av/soundbridge/internal/shared"
)

// Listing is one product already published on the downstream storefront.
type Listing struct {
	ID    string `json:"id"`
	SKU   string `json:"sku"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// CreationPayload is the storefront product-creation body.
type CreationPayload struct {
	Name           string   `json:"name"`
	SKU            string   `json:"sku"`
	Model          string   `json:"model,omitempty"`
	Description    string   `json:"description,omitempty"`
	Price          float64  `json:"price"`
	CategoryID     string   `json:"category_id"`
	ManufacturerID string   `json:"manufacturer_id"`
	Images         []string `json:"images,omitempty"`
}

// Storefront is the downstream commerce surface the push run needs. There is
// deliberately no update-by-id: matched listings are never touched.
type Storefront interface {
	Listings(ctx context.Context) ([]Listing, error)
	CreateProduct(ctx context.Context, payload CreationPayload) (string, error)
}

const (
	listingPageSize = 100
	// listingMaxPages is the runaway ceiling on the downstream walk.
	listingMaxPages = 200
)

// StorefrontClient talks to the storefront admin API. A client-credentials
// grant yields a bearer token cached until shortly before expiry.
type StorefrontClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	client       *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

var _ Storefront = (*StorefrontClient)(nil)

// NewStorefrontClient builds the admin API client.
func NewStorefrontClient(baseURL, clientID, clientSecret string) *StorefrontClient {
	return &StorefrontClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *StorefrontClient) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("push: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &shared.ConnectionError{Source: "storefront", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", &shared.ConnectionError{Source: "storefront", Err: fmt.Errorf("token grant returned status %d", resp.StatusCode)}
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return "", fmt.Errorf("push: decode token grant: %w", err)
	}
	if grant.AccessToken == "" {
		return "", &shared.ConnectionError{Source: "storefront", Err: fmt.Errorf("token grant returned empty token")}
	}

	c.token = grant.AccessToken
	if grant.ExpiresIn > 60 {
		c.tokenExp = time.Now().Add(time.Duration(grant.ExpiresIn-60) * time.Second)
	} else {
		c.tokenExp = time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second)
	}
	return c.token, nil
}

// Listings walks the paginated admin product list to the end. Hitting the
// page ceiling returns the listings gathered so far together with
// shared.ErrSafetyLimit so the run can continue with a warning.
func (c *StorefrontClient) Listings(ctx context.Context) ([]Listing, error) {
	var all []Listing
	for page := 1; ; page++ {
		if page > listingMaxPages {
			return all, fmt.Errorf("push: listing page ceiling %d: %w", listingMaxPages, shared.ErrSafetyLimit)
		}
		batch, err := c.listPage(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < listingPageSize {
			return all, nil
		}
	}
}

func (c *StorefrontClient) listPage(ctx context.Context, page int) ([]Listing, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/admin/products?page=%d&limit=%d", c.baseURL, page, listingPageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("push: build listing request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &shared.ConnectionError{Source: "storefront", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push: listing page %d returned status %d", page, resp.StatusCode)
	}

	var body struct {
		Products []Listing `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("push: decode listing page %d: %w", page, err)
	}
	return body.Products, nil
}

// CreateProduct publishes one product and returns its downstream id.
func (c *StorefrontClient) CreateProduct(ctx context.Context, payload CreationPayload) (string, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("push: marshal creation payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admin/products", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("push: build creation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("push: create %s: %w", payload.SKU, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("push: create %s returned status %d", payload.SKU, resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("push: decode creation response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("push: create %s returned no id", payload.SKU)
	}
	return created.ID, nil
}
