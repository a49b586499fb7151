package cache

import (
	"context"
	"time"

	"github.com/ppiankov/erosion/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LoadFunc produces a value on a cache miss
type LoadFunc func(ctx context.Context) ([]byte, error)

// ReadThrough wraps a cache with load-on-miss. Concurrent misses for the
// same key share one load. Cache failures degrade to a plain load and are
// never returned to the caller. A nil cache always loads.
type ReadThrough struct {
	cache   Cache
	group   singleflight.Group
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewReadThrough creates a read-through wrapper
func NewReadThrough(c Cache, logger *zap.Logger, m *metrics.Metrics) *ReadThrough {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadThrough{cache: c, logger: logger, metrics: m}
}

// Get returns the cached value for key or calls load and stores its result.
// hit reports whether the value came from the cache. Only load errors are
// returned; failed loads are not cached.
func (r *ReadThrough) Get(ctx context.Context, key string, ttl time.Duration, load LoadFunc) (value []byte, hit bool, err error) {
	if r.cache == nil {
		value, err = load(ctx)
		return value, false, err
	}

	if val, found, err := r.cache.Get(ctx, key); err != nil {
		r.metrics.ObserveCache("error")
		r.logger.Debug("cache get failed, loading", zap.String("key", key), zap.Error(err))
	} else if found {
		r.metrics.ObserveCache("hit")
		return val, true, nil
	} else {
		r.metrics.ObserveCache("miss")
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Set(ctx, key, loaded, ttl); err != nil {
			r.logger.Debug("cache set failed", zap.String("key", key), zap.Error(err))
		}
		return loaded, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}

// Invalidate removes key, ignoring cache failures
func (r *ReadThrough) Invalidate(ctx context.Context, key string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.Debug("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}
