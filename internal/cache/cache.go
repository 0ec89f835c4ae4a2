// Package cache stores rendered GET responses for the HTTP layer. The memory
// backend serves a single replica; the redis backend is shared so a write on
// one replica invalidates every replica's cached reads.
package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"calibration-backend/config"
)

// ErrMiss is returned by Get when no entry is cached under the key.
var ErrMiss = errors.New("cache miss")

// Entry is one cached HTTP response.
type Entry struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Store is a response cache backend.
type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key string, e Entry, ttl time.Duration) error
	// Flush drops every cached response.
	Flush(ctx context.Context) error
}

// New builds the backend selected by cfg.
func New(ctx context.Context, cfg config.CacheConfig, ttl time.Duration) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(ttl), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		return NewRedis(client, cfg.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}
