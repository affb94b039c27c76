// Package nickname caches display names of players.
package nickname

import (
	"context"
	"time"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/collab"
	"github.com/mpapenbr/racebet/pkg/utils/cache"
	"github.com/mpapenbr/racebet/pkg/utils/cache/loadercache"
)

type (
	Option func(*config)
	config struct {
		ttl time.Duration
		l   *log.Logger
	}
	Cache struct {
		c cache.Cache[string, string]
	}
)

func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.ttl = ttl
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.l = l
	}
}

// New wraps source. Unknown players are not cached so a later
// registration is picked up immediately.
func New(source collab.Nicknames, opts ...Option) *Cache {
	cfg := &config{ttl: 10 * time.Minute, l: log.Default().Named("nickname")}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Cache{
		c: loadercache.New(
			loadercache.WithExpiration[string, string](cfg.ttl),
			loadercache.WithLogger[string, string](cfg.l),
			loadercache.WithLoader(func(ctx context.Context, id string) (*string, error) {
				name, err := source.Resolve(ctx, id)
				if err != nil {
					return nil, err
				}
				return &name, nil
			}),
		),
	}
}

func (n *Cache) Resolve(ctx context.Context, playerID string) (string, error) {
	name, err := n.c.Get(ctx, playerID)
	if err != nil {
		return "", err
	}
	return *name, nil
}

// Forget drops a cached name, e.g. after a rename.
func (n *Cache) Forget(ctx context.Context, playerID string) {
	n.c.Invalidate(ctx, playerID)
}

var _ collab.Nicknames = (*Cache)(nil)
