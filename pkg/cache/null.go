package cache

import (
	"context"
	"time"
)

// NullCache stands in when results must not be cached: under --no-cache,
// for the "none" URL, or when the default directory is unusable. It
// remembers why so the caller can report it.
type NullCache struct {
	reason string
}

// NewNullCache returns a cache that misses on every lookup and drops every
// store. reason is reported by [Disabled].
func NewNullCache(reason string) Cache {
	return &NullCache{reason: reason}
}

func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (c *NullCache) Close() error {
	return nil
}

// Disabled reports whether c caches nothing, and why.
func Disabled(c Cache) (string, bool) {
	n, ok := c.(*NullCache)
	if !ok {
		return "", false
	}
	return n.reason, true
}

var _ Cache = (*NullCache)(nil)
