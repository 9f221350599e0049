package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/minigestor/internal/config"
)

type testStruct struct {
	Name string
	Age  int
}

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		RedisAddress: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := testStruct{Name: "Alice", Age: 30}
	version, err := cache.Version(ctx, "user:1")
	require.NoError(t, err)
	assert.Zero(t, version)

	stored, err := cache.SetIfVersion(ctx, "user:1", version, expected, time.Minute)
	require.NoError(t, err)
	require.True(t, stored)

	var actual testStruct
	found, err := cache.Get(ctx, "user:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out testStruct
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetExpires(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	_, err := cache.SetIfVersion(ctx, "short", 0, "value", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	var out string
	found, err := cache.Get(ctx, "short", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetWithoutExpiration(t *testing.T) {
	cache, mr := setupTestCache(t)

	stored, err := cache.SetIfVersion(context.Background(), "forever", 0, "value", 0)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Zero(t, mr.TTL("forever"))
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	_, err := cache.SetIfVersion(ctx, "key", 0, "value", time.Minute)
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(ctx, "key"))

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)

	version, err := cache.Version(ctx, "key")
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)
}

func TestSetIfVersion_SkipsWriteAfterInvalidate(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	readVersion, err := cache.Version(ctx, "profile:u1")
	require.NoError(t, err)

	// инвалидация между чтением из хранилища и записью в кэш
	require.NoError(t, cache.Invalidate(ctx, "profile:u1"))

	stored, err := cache.SetIfVersion(ctx, "profile:u1", readVersion, testStruct{Name: "stale"}, time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists("profile:u1"))

	current, err := cache.Version(ctx, "profile:u1")
	require.NoError(t, err)
	stored, err = cache.SetIfVersion(ctx, "profile:u1", current, testStruct{Name: "fresh"}, time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	err := cache.Db.Set(ctx, "bad", []byte("not-json"), time.Minute).Err()
	require.NoError(t, err)

	var out testStruct
	found, err := cache.Get(ctx, "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		RedisAddress: "127.0.0.1:9999",
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}
