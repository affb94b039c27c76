// Package cache defines a small read-through cache abstraction.
package cache

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned when a key is absent and nothing can load it.
var ErrCacheMiss = errors.New("cache miss")

// Cache returns values for keys, loading and remembering them on demand.
// Implementations must be safe for concurrent use.
type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (*V, error)
	// Invalidate drops key so the next Get loads it again.
	Invalidate(ctx context.Context, key K)
	InvalidateAll(ctx context.Context)
}
