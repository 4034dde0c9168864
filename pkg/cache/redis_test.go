package cache

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisCache_SetGetDelete(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	c, err := NewRedisCache(ctx, NewRedisCacheConfig{Address: m.Addr(), Prefix: "test:"}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.True(t, m.Exists("test:k"))

	v, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, found, err = c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestRedisCache_Expiry(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	c, err := NewRedisCache(ctx, NewRedisCacheConfig{Address: m.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", "v", time.Second))
	m.FastForward(2 * time.Second)

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	addr := m.Addr()
	m.Close()

	_, err = NewRedisCache(context.Background(), NewRedisCacheConfig{Address: addr}, zap.NewNop())
	require.Error(t, err)
}

func TestNopCache(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set(context.Background(), "k", "v", time.Minute))
	_, found, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, found)
}
