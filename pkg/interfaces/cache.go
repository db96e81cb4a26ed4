package interfaces

import (
	"context"
	"time"
)

// CacheProvider stores resolved schemas and loaded items between renders.
type CacheProvider interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// PrefixCache is implemented by caches able to drop a key namespace.
type PrefixCache interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}
