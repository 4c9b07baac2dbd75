// Package cache holds the short-TTL read cache used only for dashboard
// display. Financial writes invalidate it; nothing reads it to drive
// further writes.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dashboard caches serialized dashboard payloads per org.
type Dashboard interface {
	Get(ctx context.Context, orgID string) ([]byte, bool)
	Set(ctx context.Context, orgID string, payload []byte, ttl time.Duration)
	Invalidate(ctx context.Context, orgID string)
}

const keyPrefix = "dashboard:"

// RedisDashboard stores dashboard payloads in redis.
type RedisDashboard struct {
	client *redis.Client
}

func NewRedisDashboard(client *redis.Client) *RedisDashboard {
	return &RedisDashboard{client: client}
}

func (c *RedisDashboard) Get(ctx context.Context, orgID string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, keyPrefix+orgID).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (c *RedisDashboard) Set(ctx context.Context, orgID string, payload []byte, ttl time.Duration) {
	if c == nil || c.client == nil || ttl <= 0 {
		return
	}
	// Cache failures only cost a recomputation.
	_ = c.client.Set(ctx, keyPrefix+orgID, payload, ttl).Err()
}

func (c *RedisDashboard) Invalidate(ctx context.Context, orgID string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, keyPrefix+orgID).Err()
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryDashboard is the single-process fallback when redis is not
// configured.
type MemoryDashboard struct {
	mu    sync.Mutex
	items map[string]memoryEntry
}

func NewMemoryDashboard() *MemoryDashboard {
	return &MemoryDashboard{items: make(map[string]memoryEntry)}
}

func (c *MemoryDashboard) Get(ctx context.Context, orgID string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[orgID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.items, orgID)
		return nil, false
	}
	return entry.payload, true
}

func (c *MemoryDashboard) Set(ctx context.Context, orgID string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.items[orgID] = memoryEntry{payload: payload, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *MemoryDashboard) Invalidate(ctx context.Context, orgID string) {
	c.mu.Lock()
	delete(c.items, orgID)
	c.mu.Unlock()
}
