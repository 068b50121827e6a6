package memento

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metamodel/internal/config"
)

type summary struct {
	Title string
	Count int
	Tags  []string
}

func TestEncodeString_Deterministic(t *testing.T) {
	a, err := EncodeString(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	b, err := EncodeString(map[string]int{"c": 3, "a": 1, "b": 2})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEncodeString_RoundTrip(t *testing.T) {
	in := summary{Title: "Groceries", Count: 3, Tags: []string{"home"}}
	s, err := EncodeString(in)
	require.NoError(t, err)

	var out summary
	require.NoError(t, DecodeString(s, &out))
	assert.Equal(t, in, out)
}

func TestDecodeString_Invalid(t *testing.T) {
	var out summary
	assert.Error(t, DecodeString("not base64!", &out))
	assert.Error(t, DecodeString("AAAA", &out))
}

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.True(t, IsNotFound(err))

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := store.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "k"))
	ok, err = store.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	testStore(t, store)
}

func TestMemoryStore_Expiration(t *testing.T) {
	store := NewMemoryStoreWithOptions(Options{Prefix: "test:"})
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := store.Get(ctx, "short")
	assert.True(t, IsNotFound(err))
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Set(ctx, "k", nil, 0), context.Canceled)
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStoreWithClient(client, DefaultOptions()), mr
}

func TestRedisStore(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer store.Close()

	testStore(t, store)

	require.NoError(t, store.Set(context.Background(), "ttl", []byte("v"), 0))
	assert.True(t, mr.Exists("memento:ttl"))
	assert.Equal(t, 24*time.Hour, mr.TTL("memento:ttl"))

	mr.FastForward(25 * time.Hour)
	_, err := store.Get(context.Background(), "ttl")
	assert.True(t, IsNotFound(err))
}

func TestOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := Open(config.MementoConfig{Backend: "redis", Prefix: "m:", Redis: config.RedisConfig{Addr: mr.Addr()}})
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &RedisStore{}, store)

	mem, err := Open(config.MementoConfig{Backend: "memory"})
	require.NoError(t, err)
	defer mem.Close()
	assert.IsType(t, &MemoryStore{}, mem)

	_, err = Open(config.MementoConfig{Backend: "etcd"})
	assert.Error(t, err)
}
