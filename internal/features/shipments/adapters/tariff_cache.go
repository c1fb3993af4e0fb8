package adapters

import (
	"context"
	"errors"
	"time"

	"leopards-connector/internal/core/cache"
	"leopards-connector/internal/core/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CachedTariffs implements ports.TariffCache on top of the core cache.
// Cache failures are logged and treated as misses.
type CachedTariffs struct {
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTariffs creates a tariff cache with the given entry lifetime.
func NewCachedTariffs(c cache.Cache, ttl time.Duration) *CachedTariffs {
	return &CachedTariffs{cache: c, ttl: ttl, logger: logger.Named("tariff_cache")}
}

// Get returns the cached total for key.
func (c *CachedTariffs) Get(ctx context.Context, key string) (decimal.Decimal, bool) {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn("Tariff cache read failed", zap.String("key", key), zap.Error(err))
		}
		return decimal.Zero, false
	}

	total, err := decimal.NewFromString(string(raw))
	if err != nil {
		c.logger.Warn("Discarding malformed cached tariff", zap.String("key", key), zap.Error(err))
		return decimal.Zero, false
	}
	return total, true
}

// Set stores total under key.
func (c *CachedTariffs) Set(ctx context.Context, key string, total decimal.Decimal) {
	if err := c.cache.Set(ctx, key, []byte(total.String()), c.ttl); err != nil {
		c.logger.Warn("Tariff cache write failed", zap.String("key", key), zap.Error(err))
	}
}
