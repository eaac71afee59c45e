// Package cache stores minimization results keyed by the canonical text of
// the input cover and the options used.
//
// Backends:
//   - [FileCache]: one JSON envelope per key under a directory (CLI default)
//   - [RedisCache]: shared cache for server deployments
//   - [MongoCache]: shared cache with a TTL index
//   - [NullCache]: disables caching
//
// [Open] picks a backend from a URL, and [Keyer] derives the keys.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. Expired
	// entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// DefaultTTL is the lifetime of cached results unless configured otherwise.
const DefaultTTL = 7 * 24 * time.Hour
