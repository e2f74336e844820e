// Package cache is a thin ristretto wrapper used as a read cache in front
// of the mapping store. Entries are immutable once created, so the only
// invalidation point is an admin delete.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"

	"short-link-registry/config"
)

// Cache wraps a ristretto cache keyed by short code.
type Cache struct {
	client *ristretto.Cache
	ttl    time.Duration
}

// New creates a cache sized by the given configuration.
func New(cfg config.CacheConfig) (*Cache, error) {
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(cfg.CounterSize),
		MaxCost:     int64(cfg.MaxSizeMB) * 1024 * 1024,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("max_size_mb", cfg.MaxSizeMB).
		Int("ttl_seconds", cfg.TTLSeconds).
		Msg("Entry cache initialized")

	return &Cache{
		client: client,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
	}, nil
}

// Get retrieves a cached entry by short code.
func (c *Cache) Get(code string) (interface{}, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	return c.client.Get(code)
}

// Set stores an entry with the configured TTL. cost approximates the
// in-memory size of the value.
func (c *Cache) Set(code string, value interface{}, cost int64) bool {
	if c == nil || c.client == nil {
		return false
	}
	return c.client.SetWithTTL(code, value, cost, c.ttl)
}

// Wait blocks until buffered writes have been applied.
func (c *Cache) Wait() {
	if c != nil && c.client != nil {
		c.client.Wait()
	}
}

// Delete drops a short code from the cache.
func (c *Cache) Delete(code string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(code)
}

// Close shuts the cache down.
func (c *Cache) Close() {
	if c != nil && c.client != nil {
		c.client.Close()
	}
}
