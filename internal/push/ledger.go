package push

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlreadyPushed indicates the normalized SKU is already in the ledger.
var ErrAlreadyPushed = errors.New("sku already pushed")

// NormalizeSKU collapses cosmetic SKU drift: lowercase plus stripped
// whitespace, hyphens and underscores. "ABC-123", "abc 123" and "ABC_123"
// all map to "abc123". This key is the sole defense against duplicate
// downstream creation across runs.
func NormalizeSKU(sku string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(sku))
}

// LedgerEntry is one append-only idempotency record.
type LedgerEntry struct {
	NormalizedSKU       string    `json:"normalized_sku"`
	DownstreamProductID string    `json:"downstream_product_id"`
	PushedAt            time.Time `json:"pushed_at"`
}

// Ledger is the push idempotency store. Entries are created exactly once per
// normalized SKU and never updated.
type Ledger interface {
	// Keys returns every normalized SKU already pushed.
	Keys(ctx context.Context) (map[string]struct{}, error)
	// Record appends one entry. A duplicate key returns ErrAlreadyPushed.
	Record(ctx context.Context, normalizedSKU, downstreamID string) error
}

type ledger struct {
	db *pgxpool.Pool
}

// NewLedger builds the pgx-backed ledger.
func NewLedger(db *pgxpool.Pool) Ledger {
	return &ledger{db: db}
}

func (l *ledger) Keys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := l.db.Query(ctx, `SELECT normalized_sku FROM push_tracking`)
	if err != nil {
		return nil, fmt.Errorf("push: load ledger: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var sku string
		if err := rows.Scan(&sku); err != nil {
			return nil, fmt.Errorf("push: scan ledger key: %w", err)
		}
		keys[sku] = struct{}{}
	}
	return keys, rows.Err()
}

func (l *ledger) Record(ctx context.Context, normalizedSKU, downstreamID string) error {
	_, err := l.db.Exec(ctx,
		`INSERT INTO push_tracking (normalized_sku, downstream_product_id, pushed_at) VALUES ($1, $2, now())`,
		normalizedSKU, downstreamID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("push: %q: %w", normalizedSKU, ErrAlreadyPushed)
		}
		return fmt.Errorf("push: record %q: %w", normalizedSKU, err)
	}
	return nil
}
