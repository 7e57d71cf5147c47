package sessions

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_SaveLoadDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, mr := newRedisStore(t)

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, "abc", Data{"num_visits": 3}, time.Hour))
	assert.True(t, mr.Exists(redisKeyPrefix+"abc"))
	data, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.InDelta(t, 3, data["num_visits"], 0)

	require.NoError(t, store.Save(ctx, "abc", Data{"num_visits": 4}, time.Hour))
	data, err = store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.InDelta(t, 4, data["num_visits"], 0, "the last write wins")

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(ctx, "abc"))
}

func TestRedisStore_Expiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, mr := newRedisStore(t)

	ttl := 14 * 24 * time.Hour
	require.NoError(t, store.Save(ctx, "old", Data{"a": "b"}, ttl))
	assert.Equal(t, ttl, mr.TTL(redisKeyPrefix+"old"))

	mr.FastForward(ttl - time.Second)
	_, err := store.Load(ctx, "old")
	require.NoError(t, err)

	mr.FastForward(time.Second)
	_, err = store.Load(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_CorruptData(t *testing.T) {
	t.Parallel()
	store, mr := newRedisStore(t)

	require.NoError(t, mr.Set(redisKeyPrefix+"bad", "{not json"))
	_, err := store.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Middleware(t *testing.T) {
	t.Parallel()
	store, _ := newRedisStore(t)
	e := newServer(store)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/count", nil))
	assert.JSONEq(t, `{"num_visits":0}`, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/count", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.JSONEq(t, `{"num_visits":1}`, rec.Body.String())
}

func TestNewRedisClient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("connects to a reachable server", func(tt *testing.T) {
		mr := miniredis.RunT(tt)
		client, err := NewRedisClient(ctx, "redis://"+mr.Addr()+"/0")
		require.NoError(tt, err)
		assert.NoError(tt, client.Close())
	})

	t.Run("rejects a malformed url", func(tt *testing.T) {
		_, err := NewRedisClient(ctx, "http://localhost:6379")
		assert.ErrorContains(tt, err, "invalid redis url")
	})

	t.Run("fails when the server is down", func(tt *testing.T) {
		mr := miniredis.RunT(tt)
		addr := mr.Addr()
		mr.Close()
		_, err := NewRedisClient(ctx, "redis://"+addr)
		assert.ErrorContains(tt, err, "redis ping failed")
	})
}

var _ io.Closer = (*RedisStore)(nil)
