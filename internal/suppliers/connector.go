// Package suppliers owns the connector framework: one connector per source,
// a name-keyed registry, and the shared sync-session lifecycle.
package suppliers

import (
	"context"
	"sort"
	"sync"
)

// SyncOptions tune a single sync run.
type SyncOptions struct {
	// Limit caps the number of records processed; zero means no cap.
	Limit int
	// DryRun exercises the full fetch/transform path but suppresses all
	// persistence side effects.
	DryRun bool
	// SessionName overrides the generated session label.
	SessionName string
	// TriggeredBy records the actor or scheduler behind the run.
	TriggeredBy string
}

// SyncResult summarises a finished run.
type SyncResult struct {
	Success   bool     `json:"success"`
	SessionID string   `json:"session_id,omitempty"`
	Supplier  string   `json:"supplier"`
	Added     int      `json:"added"`
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// Connector is implemented once per source shape.
type Connector interface {
	// Supplier returns the supplier slug this connector serves.
	Supplier() string
	// TestConnection is a cheap reachability and shape check with no
	// persistence.
	TestConnection(ctx context.Context) error
	// SyncProducts runs one full ingestion session.
	SyncProducts(ctx context.Context, opts SyncOptions) (SyncResult, error)
}

// Registry resolves connectors by supplier slug.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Connector
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Connector)}
}

// Register adds a connector, replacing any previous one for the same slug.
func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[c.Supplier()] = c
}

// Get resolves a connector by slug.
func (r *Registry) Get(name string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// Names lists registered supplier slugs in stable order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
