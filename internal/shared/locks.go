package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SupplierLockKey builds redis keys for supplier sync critical sections.
func SupplierLockKey(supplier string) string {
	return fmt.Sprintf("suppliers:%s:sync:lock", supplier)
}

// RunGuard serialises sync runs across processes. A worker that cannot
// acquire the lock leaves the supplier to the run already in flight.
type RunGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRunGuard constructs the guard. TTL bounds how long a crashed run can
// hold a lock.
func NewRunGuard(client *redis.Client, ttl time.Duration) *RunGuard {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RunGuard{client: client, ttl: ttl}
}

// Acquire attempts to take the lock, returning false when another run holds it.
func (g *RunGuard) Acquire(ctx context.Context, key string) (bool, error) {
	if g == nil || g.client == nil {
		return true, nil
	}
	ok, err := g.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("shared: acquire lock %s: %w", key, err)
	}
	return ok, nil
}

// Release frees the lock after a run finishes.
func (g *RunGuard) Release(ctx context.Context, key string) error {
	if g == nil || g.client == nil {
		return nil
	}
	if err := g.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("shared: release lock %s: %w", key, err)
	}
	return nil
}
