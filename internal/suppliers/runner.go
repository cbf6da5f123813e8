package suppliers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

// Fetcher retrieves the raw catalog for one source. Implementations may hit a
// single export, walk a paginated feed, or crawl a storefront. Warnings
// carry non-fatal conditions such as a safety ceiling being reached.
type Fetcher interface {
	Fetch(ctx context.Context, limit int) (records []catalog.SourceRecord, warnings []string, err error)
}

// Runner implements the sync-session lifecycle shared by every connector.
// Records are processed strictly one at a time; a per-record failure is
// appended to the session's error list and never aborts the batch.
type Runner struct {
	supplier    string
	fetcher     Fetcher
	transformer *catalog.Transformer
	repo        Repository
	products    catalog.Repository
	logger      *slog.Logger
}

// NewRunner wires the lifecycle for one supplier slug.
func NewRunner(supplier string, fetcher Fetcher, transformer *catalog.Transformer, repo Repository, products catalog.Repository, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		supplier:    supplier,
		fetcher:     fetcher,
		transformer: transformer,
		repo:        repo,
		products:    products,
		logger:      logger,
	}
}

// Run executes one sync session. The returned error is non-nil only when the
// supplier cannot be resolved, in which case no session was created. Every
// other failure mode finalizes the session and reports through SyncResult.
func (r *Runner) Run(ctx context.Context, opts SyncOptions) (SyncResult, error) {
	supplier, err := r.repo.SupplierByName(ctx, r.supplier)
	if err != nil {
		return SyncResult{Supplier: r.supplier}, err
	}

	if err := r.repo.SetSupplierStatus(ctx, supplier.ID, SupplierRunning, ""); err != nil {
		return SyncResult{Supplier: r.supplier}, err
	}

	session := &SyncSession{
		ID:          uuid.NewString(),
		SupplierID:  supplier.ID,
		Name:        opts.SessionName,
		StartedAt:   time.Now().UTC(),
		Status:      SessionRunning,
		TriggeredBy: opts.TriggeredBy,
	}
	if session.Name == "" {
		session.Name = fmt.Sprintf("%s sync %s", r.supplier, session.StartedAt.Format("2006-01-02 15:04"))
	}
	if err := r.repo.CreateSession(ctx, session); err != nil {
		_ = r.repo.SetSupplierStatus(ctx, supplier.ID, SupplierError, err.Error())
		return SyncResult{Supplier: r.supplier}, err
	}

	result := SyncResult{Supplier: r.supplier, SessionID: session.ID}

	records, warnings, err := r.fetcher.Fetch(ctx, opts.Limit)
	session.Warnings = append(session.Warnings, warnings...)
	if err != nil {
		if errors.Is(err, shared.ErrSafetyLimit) {
			// Ceilings are a warning; the run keeps whatever was gathered.
			session.Warnings = append(session.Warnings, err.Error())
		} else {
			return r.abort(ctx, session, result, err)
		}
	}

	for _, rec := range records {
		if opts.Limit > 0 && result.Added+result.Updated+result.Unchanged >= opts.Limit {
			break
		}

		product, err := r.transformer.Transform(supplier.ID, rec)
		if err != nil {
			session.Errors = append(session.Errors, err.Error())
			r.logger.Warn("record skipped",
				slog.String("supplier", r.supplier),
				slog.Any("error", err))
			continue
		}

		if opts.DryRun {
			// Dry runs report every record as unchanged: without the
			// upsert there is no added/updated verdict.
			result.Unchanged++
			r.logger.Info("dry-run: would upsert",
				slog.String("supplier", r.supplier),
				slog.String("sku", product.SKU),
				slog.Bool("active", product.Active))
			continue
		}

		created, err := r.products.Upsert(ctx, product)
		if err != nil {
			perr := &shared.PersistenceError{SKU: product.SKU, Err: err}
			session.Errors = append(session.Errors, perr.Error())
			r.logger.Warn("record skipped",
				slog.String("supplier", r.supplier),
				slog.Any("error", perr))
			continue
		}
		if created {
			result.Added++
		} else {
			result.Updated++
		}
	}

	now := time.Now().UTC()
	session.CompletedAt = &now
	session.Added = result.Added
	session.Updated = result.Updated
	session.Unchanged = result.Unchanged
	if len(session.Errors) > 0 {
		session.Status = SessionPartial
	} else {
		session.Status = SessionCompleted
	}
	if err := r.repo.CompleteRun(ctx, session, SupplierIdle, "", &now); err != nil {
		r.logger.Error("finalize session", slog.String("session", session.ID), slog.Any("error", err))
	}

	result.Success = true
	result.Errors = session.Errors
	result.Warnings = session.Warnings
	result.Message = session.Status
	return result, nil
}

// abort handles session-setup failures: the session is marked failed, the
// supplier is flagged with the error, and the run reports success=false.
func (r *Runner) abort(ctx context.Context, session *SyncSession, result SyncResult, cause error) (SyncResult, error) {
	now := time.Now().UTC()
	session.CompletedAt = &now
	session.Status = SessionFailed
	session.Errors = append(session.Errors, cause.Error())
	if err := r.repo.CompleteRun(ctx, session, SupplierError, cause.Error(), nil); err != nil {
		r.logger.Error("finalize failed session", slog.String("session", session.ID), slog.Any("error", err))
	}

	result.Success = false
	result.Errors = session.Errors
	result.Warnings = session.Warnings
	result.Message = cause.Error()
	return result, nil
}
