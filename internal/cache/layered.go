package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// LayeredCache checks layers in order (fastest first). A hit in an outer
// layer is promoted into every faster layer. A failing layer is skipped.
type LayeredCache struct {
	layers []Cache
	logger *zap.Logger
}

// NewLayeredCache creates a new layered cache
func NewLayeredCache(logger *zap.Logger, layers ...Cache) *LayeredCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayeredCache{layers: layers, logger: logger}
}

// Get retrieves a value, checking faster layers first
func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var errs []error
	for i, layer := range c.layers {
		val, found, err := layer.Get(ctx, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !found {
			continue
		}

		for _, faster := range c.layers[:i] {
			if err := faster.Set(ctx, key, val, 0); err != nil {
				c.logger.Debug("cache promotion failed", zap.String("key", key), zap.Error(err))
			}
		}
		return val, true, nil
	}
	return nil, false, errors.Join(errs...)
}

// Set stores a value in every layer
func (c *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var errs []error
	for _, layer := range c.layers {
		if err := layer.Set(ctx, key, value, ttl); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delete removes a value from every layer
func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	var errs []error
	for _, layer := range c.layers {
		if err := layer.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear removes all values from every layer
func (c *LayeredCache) Clear(ctx context.Context) error {
	var errs []error
	for _, layer := range c.layers {
		if err := layer.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
