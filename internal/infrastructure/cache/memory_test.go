package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache("homecook")
	clock := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	ctx := context.Background()

	key := c.GenerateKey("quote", "u1")
	assert.Equal(t, "homecook:quote:u1", key)

	require.NoError(t, c.Set(ctx, key, int64(975), time.Minute))
	v, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "975", v)

	clock = clock.Add(2 * time.Minute)
	v, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, v)
}
