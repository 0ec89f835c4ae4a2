package cache

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibration-backend/config"
)

func entry(body string) Entry {
	return Entry{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"application/json; charset=utf-8"}},
		Body:   []byte(body),
	}
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "/instruments")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "/instruments", entry(`[]`), time.Minute))
	require.NoError(t, s.Set(ctx, "/compliance/counts", entry(`{"overdue":1}`), time.Minute))

	got, err := s.Get(ctx, "/instruments")
	require.NoError(t, err)
	assert.Equal(t, entry(`[]`), got)

	require.NoError(t, s.Flush(ctx))
	_, err = s.Get(ctx, "/instruments")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = s.Get(ctx, "/compliance/counts")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory(time.Minute))
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	exerciseStore(t, NewRedis(client, "calibration:http:"))
}

func TestRedis_FlushKeepsForeignKeys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	require.NoError(t, mr.Set("other:key", "v"))
	s := NewRedis(client, "calibration:http:")
	require.NoError(t, s.Set(ctx, "/history", entry(`[]`), time.Minute))
	assert.True(t, mr.Exists("calibration:http:/history"))

	require.NoError(t, s.Flush(ctx))
	assert.False(t, mr.Exists("calibration:http:/history"))
	assert.True(t, mr.Exists("other:key"))
}

func TestRedis_Expiry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := NewRedis(client, "p:")
	require.NoError(t, s.Set(ctx, "/instruments", entry(`[]`), time.Second))
	mr.FastForward(2 * time.Second)

	_, err := s.Get(ctx, "/instruments")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.CacheConfig{Backend: "memory"}, time.Minute)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	mr := miniredis.RunT(t)
	s, err = New(ctx, config.CacheConfig{Backend: "redis", RedisAddr: mr.Addr(), KeyPrefix: "p:"}, time.Minute)
	require.NoError(t, err)
	require.IsType(t, &Redis{}, s)
	t.Cleanup(func() { s.(*Redis).Close() })

	_, err = New(ctx, config.CacheConfig{Backend: "memcached"}, time.Minute)
	assert.Error(t, err)
}
