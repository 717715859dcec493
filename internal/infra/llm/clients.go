package llm

import (
	lru "github.com/hashicorp/golang-lru"
)

// DefaultClientCacheSize bounds the number of live provider clients.
const DefaultClientCacheSize = 32

// ClientCache memoizes constructed provider adapters so repeated requests
// reuse HTTP clients. Entries are keyed by the fields that change adapter
// behavior; least recently used entries are evicted when the bound is hit.
type ClientCache struct {
	cache *lru.Cache
}

// NewClientCache builds a bounded cache. Non-positive sizes fall back to the
// default bound.
func NewClientCache(size int) *ClientCache {
	if size <= 0 {
		size = DefaultClientCacheSize
	}
	// lru.New only fails for non-positive sizes, which are coerced above.
	cache, _ := lru.New(size)
	return &ClientCache{cache: cache}
}

func cacheKey(cfg ProviderConfig) string {
	return string(cfg.Kind) + "|" + cfg.APIKey + "|" + cfg.BaseURL
}

// Get returns the cached adapter for cfg, constructing and storing one on miss.
func (c *ClientCache) Get(cfg ProviderConfig) (Provider, error) {
	key := cacheKey(cfg)
	if v, ok := c.cache.Get(key); ok {
		return v.(Provider), nil
	}
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, p)
	return p, nil
}

// Purge drops all cached adapters. Called when provider settings change so
// stale keys or endpoints never serve another request.
func (c *ClientCache) Purge() {
	c.cache.Purge()
}

// Len reports the number of cached adapters.
func (c *ClientCache) Len() int {
	return c.cache.Len()
}
