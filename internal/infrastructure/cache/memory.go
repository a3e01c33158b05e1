package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type entry struct {
	value   string
	expires time.Time
}

// MemoryCache is a process-local stand-in for RedisCache.
type MemoryCache struct {
	mu          sync.RWMutex
	m           map[string]entry
	serviceName string
	now         func() time.Time
}

func NewMemoryCache(serviceName string) *MemoryCache {
	return &MemoryCache{m: map[string]entry{}, serviceName: serviceName, now: time.Now}
}

func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := entry{value: fmt.Sprint(value)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.m[key] = e
	return nil
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[key]
	if !ok || (!e.expires.IsZero() && c.now().After(e.expires)) {
		return "", nil
	}
	return e.value, nil
}

func (c *MemoryCache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", c.serviceName, operation, key)
}
