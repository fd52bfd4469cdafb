package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache errors
var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// CacheHelper wraps a redis client with a key prefix and JSON encoding. A
// helper built on a nil client is a no-op, so callers never branch on
// whether redis is configured.
type CacheHelper struct {
	client *redis.Client
	prefix string
}

func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: prefix,
	}
}

// CacheConfig defines cache configuration for different data types
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

// Only rows that never change after creation are cached. Enrollment and
// document state is always read from the store.
var (
	SchoolCacheConfig = CacheConfig{
		TTL:    30 * time.Minute,
		Prefix: "school:",
	}

	// Invalidated whenever the manager registers another school.
	ManagerSchoolsCacheConfig = CacheConfig{
		TTL:    10 * time.Minute,
		Prefix: "manager_schools:",
	}
)

func (c *CacheHelper) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *CacheHelper) GetCacheKey(key string) string {
	return c.prefix + key
}

// Get retrieves and unmarshals data from cache
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if !c.Enabled() {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.GetCacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal: %w", err)
	}
	return nil
}

// Set marshals and stores data in cache
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	return c.client.Set(ctx, c.GetCacheKey(key), data, ttl).Err()
}

// Delete removes keys in a single round trip.
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.GetCacheKey(key)
	}
	return c.client.Del(ctx, cacheKeys...).Err()
}

// InvalidatePattern removes all keys matching a pattern using SCAN instead of KEYS
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if !c.Enabled() {
		return nil
	}

	fullPattern := c.GetCacheKey(pattern)
	var cursor uint64
	var keys []string
	for {
		var batch []string
		var err error
		batch, cursor, err = c.client.Scan(ctx, cursor, fullPattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan %q: %w", fullPattern, err)
		}
		keys = append(keys, batch...)
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	const batchSize = 100
	for i := 0; i < len(keys); i += batchSize {
		end := min(i+batchSize, len(keys))
		pipe.Del(ctx, keys[i:end]...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache pipeline delete: %w", err)
	}
	return nil
}

// CacheOrExecute implements cache-aside: a hit is decoded into dest, a miss
// runs fetch, stores its result and decodes it into dest. Cache failures
// never fail the call; fetch errors are returned unwrapped so callers can
// match store sentinels.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetch func() (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		slog.WarnContext(ctx, "Cache get failed, falling back to store", "error", err, "key", key)
	}

	value, err := fetch()
	if err != nil {
		return err
	}

	if c.Enabled() {
		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		if err := c.Set(setCtx, key, value, ttl); err != nil {
			slog.WarnContext(ctx, "Cache set failed", "error", err, "key", key)
		}
		cancel()
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// CacheManager holds one helper per cached entity.
type CacheManager struct {
	client         *redis.Client
	School         *CacheHelper
	ManagerSchools *CacheHelper
}

// NewCacheManager creates cache manager with all cache helpers. A nil client
// yields a manager whose helpers are all disabled.
func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{
		client:         client,
		School:         NewCacheHelper(client, SchoolCacheConfig.Prefix),
		ManagerSchools: NewCacheHelper(client, ManagerSchoolsCacheConfig.Prefix),
	}
}

// HealthCheck verifies cache connectivity
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return ErrCacheNotAvailable
	}
	if err := cm.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}

// Stats reports key counts per cached entity.
func (cm *CacheManager) Stats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{"cache_enabled": cm.client != nil}
	if cm.client == nil {
		return stats
	}
	for _, prefix := range []string{SchoolCacheConfig.Prefix, ManagerSchoolsCacheConfig.Prefix} {
		var count int
		iter := cm.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			count++
		}
		stats[prefix+"count"] = count
	}
	return stats
}
