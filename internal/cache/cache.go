package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"

	"github.com/quantserve/valuation-engine/config"
	"github.com/quantserve/valuation-engine/pkg/utils/logger"
)

// Cache memoizes serialized valuation results. Identical requests hash to the
// same key, and with the fixed default seed repeated simulations are
// bit-identical, so cached results are exact rather than approximate replays.
type Cache struct {
	store *bigcache.BigCache
	log   *logger.Logger
}

// New creates a result cache. A disabled config returns a nil cache; all
// methods are nil-safe, so callers need no enabled check.
func New(ctx context.Context, cfg config.CacheConfig) (*Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	bcCfg := bigcache.DefaultConfig(cfg.TTL)
	bcCfg.Shards = cfg.Shards
	bcCfg.CleanWindow = cfg.CleanEvery
	bcCfg.HardMaxCacheSize = cfg.MaxSizeMB
	bcCfg.Verbose = false

	store, err := bigcache.New(ctx, bcCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	return &Cache{
		store: store,
		log:   logger.GetLogger("cache"),
	}, nil
}

// Key derives the cache key for an operation and its request. The request is
// serialized to JSON and hashed; struct field order makes the serialization
// canonical for a given request type.
func Key(operation string, req interface{}) string {
	payload, err := json.Marshal(req)
	if err != nil {
		return operation + ":unkeyed"
	}
	return fmt.Sprintf("%s:%016x", operation, xxhash.Sum64(payload))
}

// Get returns the cached payload for key, if present
func (c *Cache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	payload, err := c.store.Get(key)
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Set stores a payload under key. Failures are logged and swallowed; the
// cache is an optimization, never a dependency.
func (c *Cache) Set(key string, payload []byte) {
	if c == nil {
		return
	}
	if err := c.store.Set(key, payload); err != nil {
		c.log.Warnf("cache set failed for %s: %v", key, err)
	}
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.store.Len()
}

// Close releases the cache resources
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.store.Close()
}
