package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arslanaka/GDPR-Explainer/internal/config"
	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
)

// CacheService is a namespaced TTL cache on Redis. It degrades gracefully:
// when Redis is unreachable at startup or at call time, Get behaves as a miss
// and Set as a no-op, so callers never see a cache failure as an error.
type CacheService struct {
	client  *redis.Client
	logger  *logger.Logger
	ttls    config.CacheConfig
	enabled bool
}

type CacheStats struct {
	Enabled      bool    `json:"enabled"`
	TotalKeys    int64   `json:"total_keys,omitempty"`
	Hits         int64   `json:"hits,omitempty"`
	Misses       int64   `json:"misses,omitempty"`
	HitRate      float64 `json:"hit_rate,omitempty"`
	MemoryUsedMB float64 `json:"memory_used_mb,omitempty"`
	Error        string  `json:"error,omitempty"`
}

func NewCacheService(cfg config.RedisConfig, ttls config.CacheConfig, log *logger.Logger) *CacheService {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		DB:           cfg.DB,
		Password:     cfg.Password,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	service := &CacheService{
		client: client,
		logger: log,
		ttls:   ttls,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis connection failed, caching disabled",
			"host", cfg.Host, "port", cfg.Port)
		return service
	}

	service.enabled = true
	log.Info("Cache Service Initialized Successfully",
		"host", cfg.Host,
		"port", cfg.Port,
		"pool_size", cfg.PoolSize)

	return service
}

func (service *CacheService) Enabled() bool {
	return service.enabled
}

// generateKey builds "namespace:hash" or "namespace:hash:k=v:k=v" with the
// identifier lower-cased and trimmed so trivially different spellings of the
// same query collide.
func (service *CacheService) generateKey(namespace, identifier string, params map[string]string) string {
	normalized := strings.ToLower(strings.TrimSpace(identifier))
	sum := sha256.Sum256([]byte(normalized))
	keyHash := hex.EncodeToString(sum[:8])

	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("%s:%s", namespace, keyHash)
	}
	return fmt.Sprintf("%s:%s:%s", namespace, keyHash, strings.Join(parts, ":"))
}

// Get unmarshals the cached value into target and reports whether it was
// found. Any Redis or decode failure is treated as a miss.
func (service *CacheService) Get(ctx context.Context, namespace, identifier string, params map[string]string, target interface{}) bool {
	if !service.enabled {
		return false
	}

	key := service.generateKey(namespace, identifier, params)
	cached, err := service.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			service.logger.WithError(err).Warn("Cache GET failed", "key", key)
		}
		return false
	}

	if err := json.Unmarshal([]byte(cached), target); err != nil {
		service.logger.WithError(err).Warn("Cache entry corrupt, discarding", "key", key)
		service.client.Del(ctx, key)
		return false
	}

	service.logger.Debug("Cache HIT", "key", key)
	return true
}

// Set stores data under the namespace's default TTL and reports success.
func (service *CacheService) Set(ctx context.Context, namespace, identifier string, data interface{}, params map[string]string) bool {
	if !service.enabled {
		return false
	}

	key := service.generateKey(namespace, identifier, params)
	serialized, err := json.Marshal(data)
	if err != nil {
		service.logger.WithError(err).Warn("Cache SET serialization failed", "key", key)
		return false
	}

	ttl := service.defaultTTL(namespace)
	if err := service.client.Set(ctx, key, serialized, ttl).Err(); err != nil {
		service.logger.WithError(err).Warn("Cache SET failed", "key", key)
		return false
	}

	service.logger.Debug("Cache SET", "key", key, "ttl_seconds", int(ttl.Seconds()))
	return true
}

func (service *CacheService) Delete(ctx context.Context, namespace, identifier string, params map[string]string) bool {
	if !service.enabled {
		return false
	}

	key := service.generateKey(namespace, identifier, params)
	if err := service.client.Del(ctx, key).Err(); err != nil {
		service.logger.WithError(err).Warn("Cache DELETE failed", "key", key)
		return false
	}
	return true
}

// InvalidatePattern deletes all keys matching a Redis glob pattern and
// returns the number removed.
func (service *CacheService) InvalidatePattern(ctx context.Context, pattern string) int64 {
	if !service.enabled {
		return 0
	}

	startTime := time.Now()
	var deleted int64

	iter := service.client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			n, _ := service.client.Del(ctx, batch...).Result()
			deleted += n
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		n, _ := service.client.Del(ctx, batch...).Result()
		deleted += n
	}

	if err := iter.Err(); err != nil {
		service.logger.LogService("cache", "invalidate_pattern", time.Since(startTime), map[string]interface{}{
			"pattern": pattern,
			"deleted": deleted,
		}, err)
		return deleted
	}

	service.logger.Info("Cache invalidation completed", "pattern", pattern, "deleted", deleted)
	return deleted
}

func (service *CacheService) Stats(ctx context.Context) CacheStats {
	if !service.enabled {
		return CacheStats{Enabled: false}
	}

	stats := CacheStats{Enabled: true}

	total, err := service.client.DBSize(ctx).Result()
	if err != nil {
		stats.Error = err.Error()
		return stats
	}
	stats.TotalKeys = total

	if info, err := service.client.Info(ctx, "stats").Result(); err == nil {
		stats.Hits = parseInfoInt(info, "keyspace_hits")
		stats.Misses = parseInfoInt(info, "keyspace_misses")
		if total := stats.Hits + stats.Misses; total > 0 {
			stats.HitRate = float64(stats.Hits) / float64(total) * 100
		}
	}

	if info, err := service.client.Info(ctx, "memory").Result(); err == nil {
		stats.MemoryUsedMB = float64(parseInfoInt(info, "used_memory")) / 1024 / 1024
	}

	return stats
}

func (service *CacheService) HealthCheck(ctx context.Context) error {
	if !service.enabled {
		return fmt.Errorf("cache disabled")
	}
	if err := service.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache connection unhealthy: %w", err)
	}
	return nil
}

func (service *CacheService) Close() error {
	if err := service.client.Close(); err != nil {
		return fmt.Errorf("close cache client failed: %w", err)
	}
	service.logger.Info("Cache Service Closed Successfully")
	return nil
}

func (service *CacheService) defaultTTL(namespace string) time.Duration {
	switch namespace {
	case "chat":
		return service.ttls.ChatTTL
	case "search":
		return service.ttls.SearchTTL
	case "article":
		return service.ttls.ArticleTTL
	case "explanation":
		return service.ttls.ExplanationTTL
	default:
		return time.Hour
	}
}

// parseInfoInt pulls one integer field out of a Redis INFO block.
func parseInfoInt(info, field string) int64 {
	for _, line := range strings.Split(info, "\r\n") {
		if strings.HasPrefix(line, field+":") {
			value, err := strconv.ParseInt(strings.TrimPrefix(line, field+":"), 10, 64)
			if err == nil {
				return value
			}
			return 0
		}
	}
	return 0
}
