package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory keeps entries in process.
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates an in-process cache whose entries default to ttl and are
// swept every 2*ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{c: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, error) {
	v, found := m.c.Get(key)
	if !found {
		return Entry{}, ErrMiss
	}
	return v.(Entry), nil
}

func (m *Memory) Set(_ context.Context, key string, e Entry, ttl time.Duration) error {
	m.c.Set(key, e, ttl)
	return nil
}

func (m *Memory) Flush(context.Context) error {
	m.c.Flush()
	return nil
}
