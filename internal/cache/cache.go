// Package cache provides a Redis read-through cache in front of the price store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/strategy-forge/internal/models"
)

// DefaultTTL applies when no TTL is configured
const DefaultTTL = 5 * time.Minute

// Source is the backing store the cache reads through to
type Source interface {
	GetPriceDataRange(ctx context.Context, symbol string, start, end time.Time) ([]*models.PriceDataDaily, error)
	GetSentimentRange(ctx context.Context, symbol string, start, end time.Time) ([]*models.SentimentDaily, error)
}

// PriceCache serves price and sentiment ranges from Redis, falling back to
// the source on a miss or any Redis failure.
type PriceCache struct {
	client redis.Cmdable
	source Source
	ttl    time.Duration
	logger *slog.Logger
}

// NewClient creates a Redis client
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewPriceCache wraps source with a Redis cache
func NewPriceCache(client redis.Cmdable, source Source, ttl time.Duration, logger *slog.Logger) *PriceCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceCache{
		client: client,
		source: source,
		ttl:    ttl,
		logger: logger.With("component", "price_cache"),
	}
}

// PricesKey is the cache key for a price range
func PricesKey(symbol string, start, end time.Time) string {
	return rangeKey("prices", symbol, start, end)
}

// SentimentKey is the cache key for a sentiment range
func SentimentKey(symbol string, start, end time.Time) string {
	return rangeKey("sentiment", symbol, start, end)
}

func rangeKey(prefix, symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", prefix, strings.ToUpper(symbol),
		start.Format(models.DateLayout), end.Format(models.DateLayout))
}

// GetPriceDataRange implements engine.PriceSource
func (c *PriceCache) GetPriceDataRange(ctx context.Context, symbol string, start, end time.Time) ([]*models.PriceDataDaily, error) {
	key := PricesKey(symbol, start, end)

	var prices []*models.PriceDataDaily
	if c.load(ctx, key, &prices) {
		return prices, nil
	}

	prices, err := c.source.GetPriceDataRange(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(prices) > 0 {
		c.store(ctx, key, prices)
	}
	return prices, nil
}

// GetSentimentRange implements engine.PriceSource
func (c *PriceCache) GetSentimentRange(ctx context.Context, symbol string, start, end time.Time) ([]*models.SentimentDaily, error) {
	key := SentimentKey(symbol, start, end)

	var scores []*models.SentimentDaily
	if c.load(ctx, key, &scores) {
		return scores, nil
	}

	scores, err := c.source.GetSentimentRange(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(scores) > 0 {
		c.store(ctx, key, scores)
	}
	return scores, nil
}

// load reports whether key was found and decoded into dst
func (c *PriceCache) load(ctx context.Context, key string, dst interface{}) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *PriceCache) store(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Invalidate drops every cached range for symbol
func (c *PriceCache) Invalidate(ctx context.Context, symbol string) error {
	for _, prefix := range []string{"prices", "sentiment"} {
		pattern := fmt.Sprintf("%s:%s:*", prefix, strings.ToUpper(symbol))
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) == 0 {
			continue
		}
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}
	return nil
}
