package storage

import (
	"context"
	"time"
)

// HintStore is a key/value store whose reads are destructive. It backs the
// single-use handoff of checkout hints across the provider redirect.
// Supports in-process memory, Redis and PostgreSQL backends.
type HintStore interface {
	// Put replaces every key in entries as one step. A key mapped to an
	// empty value is erased instead of written.
	Put(ctx context.Context, entries map[string]string, ttl time.Duration) error

	// Take returns the values under keys and deletes them in the same step.
	// Keys that are absent or expired are missing from the result.
	Take(ctx context.Context, keys ...string) (map[string]string, error)

	// Sweep drops entries that expired without being taken
	Sweep(ctx context.Context) (removed int64, err error)
}
