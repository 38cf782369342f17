package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要本地 Redis：SPENDWISE_TEST_REDIS_ADDR=127.0.0.1:6379
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("SPENDWISE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SPENDWISE_TEST_REDIS_ADDR 未设置")
	}
	ctx := context.Background()

	c, err := NewRedisCache(ctx, addr, "", 0)
	require.NoError(t, err)
	defer c.Close()

	key := "spendwise:test:" + t.Name()
	defer c.Del(ctx, key)

	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, key, []byte("v"), time.Minute))
	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Del(ctx, key))
	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)
}
