// Package cache memoizes successful read results for a bounded time.
//
// Entries are raw result bytes keyed by operation name plus a canonical
// serialization of the validated parameters. Errors are never cached.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultMaxEntries bounds a MemoryCache when no size is configured.
const DefaultMaxEntries = 100

var ErrInvalidSize = errors.New("cache: max entries must be positive")

// Cache stores result bytes with a per-entry TTL.
//
// Implementations must be safe for concurrent use. Get never returns an
// expired entry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value until now+ttl. A non-positive ttl is a no-op.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Clock returns the current time. Tests swap it to step past expiry.
type Clock func() time.Time
