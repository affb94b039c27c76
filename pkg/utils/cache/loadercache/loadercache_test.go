package loadercache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/utils/cache"
)

func TestGet(t *testing.T) {
	calls := 0
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	errBoom := errors.New("boom")
	c := New(
		WithExpiration[string, string](time.Minute),
		WithClock[string, string](func() time.Time { return now }),
		WithLogger[string, string](log.NewNop()),
		WithLoader(func(_ context.Context, key string) (*string, error) {
			calls++
			if key == "bad" {
				return nil, errBoom
			}
			v := "v-" + key
			return &v, nil
		}),
	)
	ctx := context.Background()

	v, err := c.Get(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, "v-a", *v)
	_, _ = c.Get(ctx, "a")
	assert.Equal(t, 1, calls)

	now = now.Add(2 * time.Minute)
	_, _ = c.Get(ctx, "a")
	assert.Equal(t, 2, calls, "expired entry is reloaded")

	c.Invalidate(ctx, "a")
	_, _ = c.Get(ctx, "a")
	assert.Equal(t, 3, calls)

	_, err = c.Get(ctx, "bad")
	assert.ErrorIs(t, err, errBoom)
	_, _ = c.Get(ctx, "bad")
	assert.Equal(t, 5, calls, "errors are not cached")

	c.InvalidateAll(ctx)
	_, _ = c.Get(ctx, "a")
	assert.Equal(t, 6, calls)
}

func TestGet_NoLoader(t *testing.T) {
	c := New[string, int](WithLogger[string, int](log.NewNop()))
	_, err := c.Get(context.Background(), "x")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
