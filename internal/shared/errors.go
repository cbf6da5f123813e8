package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrSupplierUnknown indicates a sync was requested for an unseeded supplier.
	ErrSupplierUnknown = errors.New("unknown supplier")
	// ErrSafetyLimit indicates a pagination/scroll/click ceiling was hit.
	// Runs treat it as a warning, not a failure.
	ErrSafetyLimit = errors.New("safety limit reached")
)

// ConnectionError marks a source as unreachable or rejecting credentials.
// It aborts the whole sync session.
type ConnectionError struct {
	Source string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Source, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransformError marks a single malformed source record. The record is
// skipped and the batch continues.
type TransformError struct {
	SKU string
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %q: %v", e.SKU, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// PersistenceError marks a single failed store write. The record is skipped
// and the batch continues.
type PersistenceError struct {
	SKU string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %q: %v", e.SKU, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
