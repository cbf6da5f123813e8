package suppliers

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/observability"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

// Service fronts the connector registry for the control surface and the job
// worker. Concurrent triggers for the same supplier collapse into one run:
// singleflight dedupes within the process, the redis guard dedupes across
// workers.
type Service struct {
	registry *Registry
	repo     Repository
	products catalog.Repository
	guard    *shared.RunGuard
	metrics  *observability.Metrics
	logger   *slog.Logger
	group    singleflight.Group
}

// NewService wires the sync service.
func NewService(registry *Registry, repo Repository, products catalog.Repository, guard *shared.RunGuard, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		repo:     repo,
		products: products,
		guard:    guard,
		metrics:  metrics,
		logger:   logger,
	}
}

// Sync runs one connector sync, serialised per supplier.
func (s *Service) Sync(ctx context.Context, supplier string, opts SyncOptions) (SyncResult, error) {
	conn, ok := s.registry.Get(supplier)
	if !ok {
		return SyncResult{Supplier: supplier}, fmt.Errorf("suppliers: %q: %w", supplier, shared.ErrSupplierUnknown)
	}

	v, err, coalesced := s.group.Do(supplier, func() (any, error) {
		return s.runLocked(ctx, conn, opts)
	})
	if coalesced {
		s.logger.Info("sync trigger coalesced with in-flight run", slog.String("supplier", supplier))
	}
	if err != nil {
		return SyncResult{Supplier: supplier}, err
	}
	return v.(SyncResult), nil
}

func (s *Service) runLocked(ctx context.Context, conn Connector, opts SyncOptions) (SyncResult, error) {
	key := shared.SupplierLockKey(conn.Supplier())
	ok, err := s.guard.Acquire(ctx, key)
	if err != nil {
		return SyncResult{}, err
	}
	if !ok {
		return SyncResult{}, fmt.Errorf("suppliers: %s: sync already running", conn.Supplier())
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("release sync lock", slog.Any("error", err))
		}
	}()

	result, err := conn.SyncProducts(ctx, opts)
	if err != nil {
		return result, err
	}
	s.metrics.ObserveSyncRun(conn.Supplier(), result.Message, result.Added, result.Updated, len(result.Errors))
	return result, nil
}

// TestConnection proxies the connector's reachability check.
func (s *Service) TestConnection(ctx context.Context, supplier string) error {
	conn, ok := s.registry.Get(supplier)
	if !ok {
		return fmt.Errorf("suppliers: %q: %w", supplier, shared.ErrSupplierUnknown)
	}
	return conn.TestConnection(ctx)
}

// Status returns the supplier row as mutated by past runs.
func (s *Service) Status(ctx context.Context, supplier string) (Supplier, error) {
	return s.repo.SupplierByName(ctx, supplier)
}

// History lists recent sync sessions, optionally filtered by supplier.
func (s *Service) History(ctx context.Context, supplier string, page, perPage int) ([]SyncSession, shared.Pagination, error) {
	sessions, err := s.repo.Sessions(ctx, supplier, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	total, err := s.repo.SessionCount(ctx, supplier)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return sessions, shared.NewPagination(page, perPage, total), nil
}

// ProductCount reports catalog totals for the control surface.
func (s *Service) ProductCount(ctx context.Context) (int, map[int64]int, error) {
	total, err := s.products.Count(ctx)
	if err != nil {
		return 0, nil, err
	}
	bySupplier, err := s.products.CountBySupplier(ctx)
	if err != nil {
		return 0, nil, err
	}
	return total, bySupplier, nil
}

// Connectors lists the registered supplier slugs.
func (s *Service) Connectors() []string {
	return s.registry.Names()
}
