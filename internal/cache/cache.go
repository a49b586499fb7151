// Package cache provides the optional read-through cache for AI framings
// and retrieval results. A cache is an optimization only: callers treat
// every cache error as a miss.
package cache

import (
	"context"
	"time"

	"github.com/ppiankov/erosion/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache defines the interface for caching
type Cache interface {
	// Get returns the cached value. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// New builds the configured cache: memory over disk, with redis as the
// shared outer layer when an address is set. Returns nil when disabled.
func New(cfg model.CacheConfig, logger *zap.Logger) Cache {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	layers := []Cache{
		NewMemoryCache(cfg.MemoryTTL, 10*time.Minute),
	}
	if cfg.Dir != "" {
		layers = append(layers, NewDiskCache(cfg.Dir, cfg.DiskTTL))
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		layers = append(layers, NewRedisCache(client, "erosion:", cfg.RedisTTL))
		logger.Debug("redis cache layer enabled", zap.String("addr", cfg.RedisAddr))
	}

	return NewLayeredCache(logger, layers...)
}
