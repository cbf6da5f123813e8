package suppliers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soundbridge-av/soundbridge/internal/platform/db"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

// Repository persists suppliers and their sync sessions.
type Repository interface {
	SupplierByName(ctx context.Context, name string) (Supplier, error)
	SetSupplierStatus(ctx context.Context, id int64, status, errorMessage string) error
	CreateSession(ctx context.Context, session *SyncSession) error
	// CompleteRun finalizes the session and updates the supplier row in one
	// transaction, so a crash cannot leave a terminal session next to a
	// stale supplier status. lastSync is stamped only when non-nil.
	CompleteRun(ctx context.Context, session *SyncSession, supplierStatus, errorMessage string, lastSync *time.Time) error
	Sessions(ctx context.Context, supplier string, page, perPage int) ([]SyncSession, error)
	SessionCount(ctx context.Context, supplier string) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) SupplierByName(ctx context.Context, name string) (Supplier, error) {
	var s Supplier
	err := r.db.QueryRow(ctx,
		`SELECT id, name, status, last_sync, COALESCE(error_message, '') FROM suppliers WHERE name = $1`,
		name,
	).Scan(&s.ID, &s.Name, &s.Status, &s.LastSync, &s.ErrorMessage)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, fmt.Errorf("suppliers: %q: %w", name, shared.ErrSupplierUnknown)
	}
	if err != nil {
		return Supplier{}, fmt.Errorf("suppliers: load %q: %w", name, err)
	}
	return s, nil
}

func (r *repository) SetSupplierStatus(ctx context.Context, id int64, status, errorMessage string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE suppliers SET status = $2, error_message = NULLIF($3, '') WHERE id = $1`,
		id, status, errorMessage)
	if err != nil {
		return fmt.Errorf("suppliers: set status: %w", err)
	}
	return nil
}

func (r *repository) CreateSession(ctx context.Context, session *SyncSession) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sync_sessions (id, supplier_id, name, started_at, status, triggered_by)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.SupplierID, session.Name, session.StartedAt, session.Status, session.TriggeredBy)
	if err != nil {
		return fmt.Errorf("suppliers: create session: %w", err)
	}
	return nil
}

func (r *repository) CompleteRun(ctx context.Context, session *SyncSession, supplierStatus, errorMessage string, lastSync *time.Time) error {
	errs, err := json.Marshal(session.Errors)
	if err != nil {
		return fmt.Errorf("suppliers: marshal errors: %w", err)
	}
	warns, err := json.Marshal(session.Warnings)
	if err != nil {
		return fmt.Errorf("suppliers: marshal warnings: %w", err)
	}

	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE sync_sessions
			 SET completed_at = $2, status = $3, products_added = $4, products_updated = $5,
			     products_unchanged = $6, errors = $7, warnings = $8
			 WHERE id = $1 AND completed_at IS NULL`,
			session.ID, session.CompletedAt, session.Status,
			session.Added, session.Updated, session.Unchanged, errs, warns)
		if err != nil {
			return fmt.Errorf("suppliers: finalize session: %w", err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE suppliers SET status = $2, error_message = NULLIF($3, '') WHERE id = $1`,
			session.SupplierID, supplierStatus, errorMessage)
		if err != nil {
			return fmt.Errorf("suppliers: set status: %w", err)
		}
		if lastSync != nil {
			_, err = tx.Exec(ctx, `UPDATE suppliers SET last_sync = $2 WHERE id = $1`, session.SupplierID, *lastSync)
			if err != nil {
				return fmt.Errorf("suppliers: stamp last sync: %w", err)
			}
		}
		return nil
	})
}

func (r *repository) Sessions(ctx context.Context, supplier string, page, perPage int) ([]SyncSession, error) {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	query := `SELECT ss.id, ss.supplier_id, ss.name, ss.started_at, ss.completed_at, ss.status,
			ss.products_added, ss.products_updated, ss.products_unchanged,
			ss.errors, ss.warnings, COALESCE(ss.triggered_by, '')
		FROM sync_sessions ss`
	args := []any{perPage, (page - 1) * perPage}
	if supplier != "" {
		query += ` JOIN suppliers s ON s.id = ss.supplier_id WHERE s.name = $3`
		args = append(args, supplier)
	}
	query += ` ORDER BY ss.started_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("suppliers: list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SyncSession
	for rows.Next() {
		var s SyncSession
		var errsRaw, warnsRaw []byte
		if err := rows.Scan(&s.ID, &s.SupplierID, &s.Name, &s.StartedAt, &s.CompletedAt, &s.Status,
			&s.Added, &s.Updated, &s.Unchanged, &errsRaw, &warnsRaw, &s.TriggeredBy); err != nil {
			return nil, fmt.Errorf("suppliers: scan session: %w", err)
		}
		if len(errsRaw) > 0 {
			if err := json.Unmarshal(errsRaw, &s.Errors); err != nil {
				return nil, fmt.Errorf("suppliers: decode errors: %w", err)
			}
		}
		if len(warnsRaw) > 0 {
			if err := json.Unmarshal(warnsRaw, &s.Warnings); err != nil {
				return nil, fmt.Errorf("suppliers: decode warnings: %w", err)
			}
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *repository) SessionCount(ctx context.Context, supplier string) (int, error) {
	query := `SELECT COUNT(*) FROM sync_sessions ss`
	var args []any
	if supplier != "" {
		query += ` JOIN suppliers s ON s.id = ss.supplier_id WHERE s.name = $1`
		args = append(args, supplier)
	}
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("suppliers: count sessions: %w", err)
	}
	return total, nil
}
