// Package cache stores serialized pipeline results keyed by graph content,
// so repeated requests for an unchanged process skip layout and analysis.
//
// Three backends implement the same interface: FileCache for CLI usage,
// RedisCache for the server, and NullCache when caching is disabled.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface shared by all backends.
// A (nil, false, nil) return from Get is a miss, not an error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
