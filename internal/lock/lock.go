// Package lock provides distributed mutual exclusion over Redis.
// Balance cancellation is a read-then-write (compute the statement
// balance, then record the offsetting transaction); the per-organization
// lock keeps two concurrent cancellations from both reading the same
// pre-cancellation balance and double-offsetting it.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

type Manager struct {
	rs *redsync.Redsync
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{rs: redsync.New(goredis.NewPool(client))}
}

// WithLock runs fn while holding the named lock. Failing to acquire the
// lock fails the whole operation rather than proceeding unlocked.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	mutex := m.rs.NewMutex(key,
		redsync.WithExpiry(10*time.Second),
		redsync.WithTries(8),
		redsync.WithRetryDelay(250*time.Millisecond),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	defer func() {
		// Best effort: an expired lock unlocks itself.
		_, _ = mutex.UnlockContext(ctx)
	}()
	return fn(ctx)
}
