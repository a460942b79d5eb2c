package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client), server
}

func TestRedisRoundTrip(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()

	table := Table{"a@x.com": {Timestamps: []int64{1700000000000}}}
	require.NoError(t, r.Save(ctx, table))

	loaded, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, table, loaded)
}

func TestRedisMissingKeyLoadsEmpty(t *testing.T) {
	r, _ := newTestRedis(t)

	loaded, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRedisCorruptValueLoadsEmpty(t *testing.T) {
	r, server := newTestRedis(t)
	require.NoError(t, server.Set(redisKey, "{not json"))

	loaded, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRedisSaveSetsTTL(t *testing.T) {
	r, server := newTestRedis(t)

	require.NoError(t, r.Save(context.Background(), Table{}))
	assert.Equal(t, redisTTL, server.TTL(redisKey))
}

func TestRedisUnreachableSurfacesError(t *testing.T) {
	r, server := newTestRedis(t)
	server.Close()

	_, err := r.Load(context.Background())
	assert.Error(t, err)
}
