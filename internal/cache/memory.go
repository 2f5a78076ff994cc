package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory wraps an in-process cache with per-entry TTLs. Fast path for
// repeated analyses within one batch run.
type Memory struct {
	c *gocache.Cache
}

func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

func (m *Memory) Set(key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.c.Delete(key)
	return nil
}

func (m *Memory) Clear() error {
	m.c.Flush()
	return nil
}
