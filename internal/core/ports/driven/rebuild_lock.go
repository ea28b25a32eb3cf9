package driven

import (
	"context"
	"time"
)

// RebuildLock guards the single-rebuild invariant across process instances.
// A deployment with one process can use the in-process implementation; a
// multi-instance deployment uses the Redis-backed one.
type RebuildLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns true if acquired, false if already held elsewhere.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release releases a named lock if held by this instance.
	// Safe to call even if the lock is not held or has expired.
	Release(ctx context.Context, name string) error

	// Extend extends the TTL of a currently held lock.
	Extend(ctx context.Context, name string, ttl time.Duration) error
}
