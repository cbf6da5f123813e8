package suppliers

import "time"

// Supplier statuses.
const (
	SupplierIdle    = "idle"
	SupplierRunning = "running"
	SupplierError   = "error"
)

// Sync session terminal statuses. A session is finalized exactly once and
// never reopened.
const (
	SessionRunning   = "running"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
	SessionPartial   = "partial"
)

// Supplier is the seeded source row. Mutated by every sync run, never
// deleted.
type Supplier struct {
	ID           int64
	Name         string
	Status       string
	LastSync     *time.Time
	ErrorMessage string
}

// SyncSession records one bounded execution of a connector's ingestion run.
type SyncSession struct {
	ID          string
	SupplierID  int64
	Name        string
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      string
	Added       int
	Updated     int
	Unchanged   int
	Errors      []string
	Warnings    []string
	TriggeredBy string
}
