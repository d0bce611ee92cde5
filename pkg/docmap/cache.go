package docmap

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is the pluggable key/value backend shared by all models bound to a
// Connection. Implementations own their internal concurrency discipline.
type Cache interface {
	// Get returns the value stored under key, reporting whether it was found.
	Get(ctx context.Context, key string) (any, bool, error)

	// Set stores value under key, replacing any existing entry.
	Set(ctx context.Context, key string, value any) error

	// Clear removes the entry under key, reporting whether a removal occurred.
	Clear(ctx context.Context, key string) (bool, error)
}

// NoopCache never stores anything; every call is a no-op success. It is the
// default backend of a Connection.
type NoopCache struct{}

// Get always misses.
func (NoopCache) Get(context.Context, string) (any, bool, error) { return nil, false, nil }

// Set discards the value.
func (NoopCache) Set(context.Context, string, any) error { return nil }

// Clear never removes anything.
func (NoopCache) Clear(context.Context, string) (bool, error) { return false, nil }

// MapCache is an in-process map backend: exact in-memory echo, no expiry, no
// size bound.
type MapCache struct {
	mu    sync.RWMutex
	items map[string]any
}

// NewMapCache creates an empty MapCache.
func NewMapCache() *MapCache {
	return &MapCache{items: make(map[string]any)}
}

// Get returns the stored value for key.
func (c *MapCache) Get(_ context.Context, key string) (any, bool, error) {
	c.mu.RLock()
	v, ok := c.items[key]
	c.mu.RUnlock()
	return v, ok, nil
}

// Set stores value under key.
func (c *MapCache) Set(_ context.Context, key string, value any) error {
	c.mu.Lock()
	c.items[key] = value
	c.mu.Unlock()
	return nil
}

// Clear removes the entry under key.
func (c *MapCache) Clear(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	_, ok := c.items[key]
	delete(c.items, key)
	c.mu.Unlock()
	return ok, nil
}

// Len returns the number of stored entries.
func (c *MapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// LRUCache is a bounded in-process backend evicting the least recently used
// entry once capacity is exceeded.
type LRUCache struct {
	cache *lru.Cache[string, any]
}

// NewLRUCache creates an LRUCache holding at most capacity entries.
func NewLRUCache(capacity int) (*LRUCache, error) {
	cache, err := lru.New[string, any](capacity)
	if err != nil {
		return nil, fmt.Errorf("docmap: create lru cache: %w", err)
	}
	return &LRUCache{cache: cache}, nil
}

// Get returns the stored value for key and marks it recently used.
func (c *LRUCache) Get(_ context.Context, key string) (any, bool, error) {
	v, ok := c.cache.Get(key)
	return v, ok, nil
}

// Set stores value under key, possibly evicting the oldest entry.
func (c *LRUCache) Set(_ context.Context, key string, value any) error {
	c.cache.Add(key, value)
	return nil
}

// Clear removes the entry under key.
func (c *LRUCache) Clear(_ context.Context, key string) (bool, error) {
	return c.cache.Remove(key), nil
}

// Len returns the number of stored entries.
func (c *LRUCache) Len() int { return c.cache.Len() }

var (
	_ Cache = NoopCache{}
	_ Cache = (*MapCache)(nil)
	_ Cache = (*LRUCache)(nil)
)
