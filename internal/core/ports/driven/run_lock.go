package driven

import (
	"context"
	"time"
)

// RunLock serializes pipeline runs that share a ledger backend. Two
// processes uploading against the same ledger would race on batch
// membership, so a run holds the lock for its whole duration.
type RunLock interface {
	// Acquire attempts to take a named lock with the given TTL.
	// Returns false without error when another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock. Safe to call when the lock is not
	// held or has already expired.
	Release(ctx context.Context, name string) error

	// Ping checks that the lock backend is reachable.
	Ping(ctx context.Context) error
}
