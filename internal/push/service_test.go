package push

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

type stubProducts struct {
	products []catalog.Product
}

func (s *stubProducts) Upsert(ctx context.Context, p catalog.Product) (bool, error) { return false, nil }
func (s *stubProducts) Deactivate(ctx context.Context, supplierID int64, sku string) error {
	return nil
}
func (s *stubProducts) ActiveSellable(ctx context.Context) ([]catalog.Product, error) {
	return s.products, nil
}
func (s *stubProducts) Count(ctx context.Context) (int, error) { return len(s.products), nil }
func (s *stubProducts) CountBySupplier(ctx context.Context) (map[int64]int, error) {
	return nil, nil
}

type memoryLedger struct {
	entries map[string]string
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{entries: make(map[string]string)}
}

func (l *memoryLedger) Keys(ctx context.Context) (map[string]struct{}, error) {
	keys := make(map[string]struct{}, len(l.entries))
	for k := range l.entries {
		keys[k] = struct{}{}
	}
	return keys, nil
}

func (l *memoryLedger) Record(ctx context.Context, normalizedSKU, downstreamID string) error {
	if _, dup := l.entries[normalizedSKU]; dup {
		return fmt.Errorf("push: %q: %w", normalizedSKU, ErrAlreadyPushed)
	}
	l.entries[normalizedSKU] = downstreamID
	return nil
}

type stubStorefront struct {
	listings []Listing
	listErr  error
	created  []CreationPayload
	failSKUs map[string]bool
	nextID   int
}

func (s *stubStorefront) Listings(ctx context.Context) ([]Listing, error) {
	return s.listings, s.listErr
}

func (s *stubStorefront) CreateProduct(ctx context.Context, payload CreationPayload) (string, error) {
	if s.failSKUs[payload.SKU] {
		return "", fmt.Errorf("upstream rejected payload")
	}
	s.created = append(s.created, payload)
	s.nextID++
	return fmt.Sprintf("ds-%d", s.nextID), nil
}

func newTestService(products []catalog.Product, ledger Ledger, store Storefront) *Service {
	return NewService(&stubProducts{products: products}, ledger, store, NewMatcher(MatcherConfig{}), nil, time.Millisecond, nil, nil)
}

func activeProduct(sku, name string) catalog.Product {
	return catalog.Product{SKU: sku, ProductName: name, SellingPrice: 99.0, Active: true}
}

func TestRunCreatesUnlistedProducts(t *testing.T) {
	ledger := newMemoryLedger()
	store := &stubStorefront{}
	svc := newTestService([]catalog.Product{
		activeProduct("WIIM-PRO", "WiiM Pro Streamer"),
		activeProduct("KEF-LS50M", "KEF LS50 Meta"),
	}, ledger, store)

	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, result.Examined)
	require.Equal(t, 2, result.Created)
	require.Empty(t, result.Errors)
	require.Len(t, store.created, 2)
	require.Contains(t, ledger.entries, "wiimpro")
	require.Contains(t, ledger.entries, "kefls50m")
}

func TestRunSkipsLedgeredSKUs(t *testing.T) {
	ledger := newMemoryLedger()
	require.NoError(t, ledger.Record(context.Background(), "wiimpro", "ds-1"))
	store := &stubStorefront{}
	svc := newTestService([]catalog.Product{
		activeProduct("WIIM-PRO", "WiiM Pro Streamer"),
	}, ledger, store)

	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.AlreadyPushed)
	require.Zero(t, result.Created)
	require.Empty(t, store.created)
}

func TestRunDeduplicatesWithinOneRun(t *testing.T) {
	// Two suppliers carrying the same product with cosmetic SKU drift.
	ledger := newMemoryLedger()
	store := &stubStorefront{}
	svc := newTestService([]catalog.Product{
		activeProduct("ABC-123", "Focal Aria Evo"),
		activeProduct("abc 123", "Focal Aria Evo X"),
	}, ledger, store)

	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	require.Equal(t, 1, result.AlreadyPushed)
	require.Len(t, store.created, 1)
}

func TestRunSkipsMatchedListings(t *testing.T) {
	ledger := newMemoryLedger()
	store := &stubStorefront{
		listings: []Listing{{ID: "ds-9", Name: "WiiM Pro Streamer", SKU: "wiim-pro"}},
	}
	svc := newTestService([]catalog.Product{
		activeProduct("WIIM-PRO", "WiiM Pro Streamer"),
	}, ledger, store)

	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Matched)
	require.Zero(t, result.Created)
	require.Empty(t, store.created)
	// Matched products are not ledgered; update-by-id stays unimplemented.
	require.Empty(t, ledger.entries)
}

func TestRunDryRunSuppressesSideEffects(t *testing.T) {
	ledger := newMemoryLedger()
	store := &stubStorefront{}
	svc := newTestService([]catalog.Product{
		activeProduct("WIIM-PRO", "WiiM Pro Streamer"),
	}, ledger, store)

	result, err := svc.Run(context.Background(), RunOptions{DryRun: true})
	require.NoError(t, err)
	require.True(t, result.DryRun)
	require.Equal(t, 1, result.Created)
	require.Empty(t, store.created)
	require.Empty(t, ledger.entries)
}

func TestRunContinuesPastCreationFailures(t *testing.T) {
	ledger := newMemoryLedger()
	store := &stubStorefront{failSKUs: map[string]bool{"BAD-1": true}}
	svc := newTestService([]catalog.Product{
		activeProduct("BAD-1", "Broken Product"),
		activeProduct("GOOD-1", "Working Product"),
	}, ledger, store)

	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, 1, result.Created)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "BAD-1")
}

func TestRunHonorsLimit(t *testing.T) {
	ledger := newMemoryLedger()
	store := &stubStorefront{}
	svc := newTestService([]catalog.Product{
		activeProduct("A-1", "Product One"),
		activeProduct("B-2", "Product Two"),
		activeProduct("C-3", "Product Three"),
	}, ledger, store)

	result, err := svc.Run(context.Background(), RunOptions{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 2, result.Examined)
	require.Len(t, store.created, 2)
}

func TestRunTreatsListingCeilingAsWarning(t *testing.T) {
	ledger := newMemoryLedger()
	store := &stubStorefront{
		listings: []Listing{{ID: "ds-9", Name: "WiiM Pro Streamer", SKU: "wiim-pro"}},
		listErr:  fmt.Errorf("push: listing page ceiling 200: %w", shared.ErrSafetyLimit),
	}
	svc := newTestService([]catalog.Product{
		activeProduct("WIIM-PRO", "WiiM Pro Streamer"),
		activeProduct("KEF-LS50M", "KEF LS50 Meta"),
	}, ledger, store)

	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Matched)
	require.Equal(t, 1, result.Created)
	require.NotEmpty(t, result.Errors)
}

func TestRunAbortsWhenListingsUnavailable(t *testing.T) {
	store := &stubStorefront{listErr: fmt.Errorf("connection refused")}
	svc := newTestService([]catalog.Product{
		activeProduct("WIIM-PRO", "WiiM Pro Streamer"),
	}, newMemoryLedger(), store)

	_, err := svc.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	require.Empty(t, store.created)
}

func TestRunIsIdempotentAcrossRuns(t *testing.T) {
	ledger := newMemoryLedger()
	store := &stubStorefront{}
	products := []catalog.Product{activeProduct("WIIM-PRO", "WiiM Pro Streamer")}

	first, err := newTestService(products, ledger, store).Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, first.Created)

	second, err := newTestService(products, ledger, store).Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Zero(t, second.Created)
	require.Equal(t, 1, second.AlreadyPushed)
	require.Len(t, store.created, 1)
}
