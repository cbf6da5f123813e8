package suppliers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

type memoryRepo struct {
	suppliers map[string]Supplier
	sessions  map[string]*SyncSession
	finalized map[string]int
}

func newMemoryRepo(names ...string) *memoryRepo {
	r := &memoryRepo{
		suppliers: make(map[string]Supplier),
		sessions:  make(map[string]*SyncSession),
		finalized: make(map[string]int),
	}
	for i, name := range names {
		r.suppliers[name] = Supplier{ID: int64(i + 1), Name: name, Status: SupplierIdle}
	}
	return r
}

func (r *memoryRepo) SupplierByName(ctx context.Context, name string) (Supplier, error) {
	s, ok := r.suppliers[name]
	if !ok {
		return Supplier{}, shared.ErrSupplierUnknown
	}
	return s, nil
}

func (r *memoryRepo) SetSupplierStatus(ctx context.Context, id int64, status, errorMessage string) error {
	for name, s := range r.suppliers {
		if s.ID == id {
			s.Status = status
			s.ErrorMessage = errorMessage
			r.suppliers[name] = s
		}
	}
	return nil
}

func (r *memoryRepo) CreateSession(ctx context.Context, session *SyncSession) error {
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *memoryRepo) CompleteRun(ctx context.Context, session *SyncSession, supplierStatus, errorMessage string, lastSync *time.Time) error {
	copied := *session
	r.sessions[session.ID] = &copied
	r.finalized[session.ID]++
	for name, s := range r.suppliers {
		if s.ID == session.SupplierID {
			s.Status = supplierStatus
			s.ErrorMessage = errorMessage
			if lastSync != nil {
				t := *lastSync
				s.LastSync = &t
			}
			r.suppliers[name] = s
		}
	}
	return nil
}

func (r *memoryRepo) Sessions(ctx context.Context, supplier string, page, perPage int) ([]SyncSession, error) {
	var out []SyncSession
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memoryRepo) SessionCount(ctx context.Context, supplier string) (int, error) {
	return len(r.sessions), nil
}

type memoryProducts struct {
	bySKU   map[string]catalog.Product
	failSKU string
}

func newMemoryProducts() *memoryProducts {
	return &memoryProducts{bySKU: make(map[string]catalog.Product)}
}

func (m *memoryProducts) Upsert(ctx context.Context, p catalog.Product) (bool, error) {
	if p.SKU == m.failSKU {
		return false, errors.New("write refused")
	}
	_, exists := m.bySKU[p.SKU]
	m.bySKU[p.SKU] = p
	return !exists, nil
}

func (m *memoryProducts) Deactivate(ctx context.Context, supplierID int64, sku string) error {
	p := m.bySKU[sku]
	p.Active = false
	m.bySKU[sku] = p
	return nil
}

func (m *memoryProducts) ActiveSellable(ctx context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range m.bySKU {
		if p.Active && p.SellingPrice > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryProducts) Count(ctx context.Context) (int, error) { return len(m.bySKU), nil }

func (m *memoryProducts) CountBySupplier(ctx context.Context) (map[int64]int, error) {
	counts := make(map[int64]int)
	for _, p := range m.bySKU {
		counts[p.SupplierID]++
	}
	return counts, nil
}

type staticFetcher struct {
	records  []catalog.SourceRecord
	warnings []string
	err      error
}

func (f staticFetcher) Fetch(ctx context.Context, limit int) ([]catalog.SourceRecord, []string, error) {
	return f.records, f.warnings, f.err
}

func record(sku, name string, qty int) catalog.SourceRecord {
	return catalog.SourceRecord{
		Name:      name,
		SKU:       sku,
		CostPrice: 100,
		Stock:     map[string]int{"utrecht": qty},
	}
}

func newRunner(fetcher Fetcher, repo Repository, products catalog.Repository) *Runner {
	return NewRunner("avitech", fetcher, catalog.NewTransformer("avitech"), repo, products, nil)
}

func TestRunPersistsAndClassifiesAddedVersusUpdated(t *testing.T) {
	repo := newMemoryRepo("avitech")
	products := newMemoryProducts()
	fetcher := staticFetcher{records: []catalog.SourceRecord{
		record("A-1", "Speaker One", 2),
		record("A-2", "Speaker Two", 1),
	}}

	result, err := newRunner(fetcher, repo, products).Run(context.Background(), SyncOptions{})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 2, result.Added)
	require.Equal(t, 0, result.Updated)

	// Second run updates both.
	result, err = newRunner(fetcher, repo, products).Run(context.Background(), SyncOptions{})
	require.NoError(t, err)
	require.Equal(t, 0, result.Added)
	require.Equal(t, 2, result.Updated)

	sup := repo.suppliers["avitech"]
	require.Equal(t, SupplierIdle, sup.Status)
	require.NotNil(t, sup.LastSync)
}

func TestRunUnknownSupplierCreatesNoSession(t *testing.T) {
	repo := newMemoryRepo("avitech")
	_, err := NewRunner("nope", staticFetcher{}, catalog.NewTransformer("nope"), repo, newMemoryProducts(), nil).
		Run(context.Background(), SyncOptions{})
	require.ErrorIs(t, err, shared.ErrSupplierUnknown)
	require.Empty(t, repo.sessions)
}

func TestRunEmptyFeedCompletesWithZeroAdditions(t *testing.T) {
	repo := newMemoryRepo("avitech")
	result, err := newRunner(staticFetcher{}, repo, newMemoryProducts()).Run(context.Background(), SyncOptions{})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 0, result.Added)

	session := repo.sessions[result.SessionID]
	require.Equal(t, SessionCompleted, session.Status)
	require.NotNil(t, session.CompletedAt)
	require.Equal(t, 1, repo.finalized[result.SessionID], "session finalized exactly once")
}

func TestRunMalformedRecordsNeverAbortBatch(t *testing.T) {
	repo := newMemoryRepo("avitech")
	products := newMemoryProducts()
	fetcher := staticFetcher{records: []catalog.SourceRecord{
		record("A-1", "Speaker One", 2),
		{Name: "missing sku", CostPrice: 10},
		record("A-3", "Speaker Three", 1),
		{SKU: "A-4", CostPrice: 10}, // missing name
	}}

	result, err := newRunner(fetcher, repo, products).Run(context.Background(), SyncOptions{})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 2, result.Added)
	require.Len(t, result.Errors, 2)
	require.Equal(t, SessionPartial, repo.sessions[result.SessionID].Status)
}

func TestRunPersistenceFailureSkipsRecordOnly(t *testing.T) {
	repo := newMemoryRepo("avitech")
	products := newMemoryProducts()
	products.failSKU = "A-2"
	fetcher := staticFetcher{records: []catalog.SourceRecord{
		record("A-1", "Speaker One", 2),
		record("A-2", "Speaker Two", 2),
		record("A-3", "Speaker Three", 2),
	}}

	result, err := newRunner(fetcher, repo, products).Run(context.Background(), SyncOptions{})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 2, result.Added)
	require.Len(t, result.Errors, 1)
}

func TestRunFetchFailureAbortsSession(t *testing.T) {
	repo := newMemoryRepo("avitech")
	fetcher := staticFetcher{err: &shared.ConnectionError{Source: "avitech", Err: errors.New("dial tcp: refused")}}

	result, err := newRunner(fetcher, repo, newMemoryProducts()).Run(context.Background(), SyncOptions{})
	require.NoError(t, err)
	require.False(t, result.Success)

	session := repo.sessions[result.SessionID]
	require.Equal(t, SessionFailed, session.Status)
	sup := repo.suppliers["avitech"]
	require.Equal(t, SupplierError, sup.Status)
	require.NotEmpty(t, sup.ErrorMessage)
}

func TestRunSafetyLimitIsWarningNotFailure(t *testing.T) {
	repo := newMemoryRepo("avitech")
	fetcher := staticFetcher{
		records: []catalog.SourceRecord{record("A-1", "Speaker One", 2)},
		err:     shared.ErrSafetyLimit,
	}

	result, err := newRunner(fetcher, repo, newMemoryProducts()).Run(context.Background(), SyncOptions{})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 1, result.Added)
	require.NotEmpty(t, result.Warnings)
	require.Equal(t, SessionCompleted, repo.sessions[result.SessionID].Status)
}

func TestRunDryRunSuppressesPersistence(t *testing.T) {
	repo := newMemoryRepo("avitech")
	products := newMemoryProducts()
	fetcher := staticFetcher{records: []catalog.SourceRecord{
		record("A-1", "Speaker One", 2),
		record("A-2", "Speaker Two", 1),
	}}

	result, err := newRunner(fetcher, repo, products).Run(context.Background(), SyncOptions{DryRun: true})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 0, result.Added)
	require.Equal(t, 2, result.Unchanged)
	require.Empty(t, products.bySKU)
}

func TestRunHonoursLimit(t *testing.T) {
	repo := newMemoryRepo("avitech")
	products := newMemoryProducts()
	fetcher := staticFetcher{records: []catalog.SourceRecord{
		record("A-1", "Speaker One", 2),
		record("A-2", "Speaker Two", 1),
		record("A-3", "Speaker Three", 1),
	}}

	result, err := newRunner(fetcher, repo, products).Run(context.Background(), SyncOptions{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 2, result.Added)
	require.Len(t, products.bySKU, 2)
}
