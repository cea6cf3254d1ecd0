package driven

import (
	"context"
	"time"
)

// Cache is a shared key-value store with per-entry expiry. Concurrent
// writers to one key race with last-write-wins semantics.
type Cache interface {
	// Get returns the value and true on a hit. Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key starting with prefix and returns the
	// number removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
