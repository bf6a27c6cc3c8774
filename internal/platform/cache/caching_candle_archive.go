package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ticker_backend/internal/feature/ticker/domain/entity"
	"ticker_backend/internal/feature/ticker/usecase"
)

// CachingCandleArchive decorates a CandleArchive with Redis caching.
// Finalized candles only change at the daily rollover, so entries live until the
// next midnight in the exchange timezone and are invalidated on every upsert.
type CachingCandleArchive struct {
	inner     usecase.CandleArchive
	rdb       *redis.Client
	loc       *time.Location
	namespace string
	now       func() time.Time
}

var _ usecase.CandleArchive = (*CachingCandleArchive)(nil)

// NewCachingCandleArchive decorates a CandleArchive with Redis caching.
// If loc is nil, UTC is used. If namespace is empty, it uses "candles".
func NewCachingCandleArchive(rdb *redis.Client, inner usecase.CandleArchive, loc *time.Location, namespace string) *CachingCandleArchive {
	if loc == nil {
		loc = time.UTC
	}
	if namespace == "" {
		namespace = "candles"
	}
	return &CachingCandleArchive{
		inner:     inner,
		rdb:       rdb,
		loc:       loc,
		namespace: namespace,
		now:       time.Now,
	}
}

// UpsertBatch writes candles and invalidates cached queries for the symbol.
func (c *CachingCandleArchive) UpsertBatch(ctx context.Context, symbol string, candles []entity.DailyCandle) error {
	if err := c.inner.UpsertBatch(ctx, symbol, candles); err != nil {
		return err
	}
	if c.rdb == nil || len(candles) == 0 {
		return nil
	}
	_ = c.deleteByPattern(ctx, c.cacheKeyPrefix(symbol)+"*") // Best effort: don't fail if cache deletion fails
	return nil
}

// Find retrieves candles, checking cache first then falling back to the archive.
func (c *CachingCandleArchive) Find(ctx context.Context, symbol string, limit int) ([]entity.DailyCandle, error) {
	if c.rdb == nil {
		return c.inner.Find(ctx, symbol, limit)
	}

	key := c.cacheKey(symbol, limit)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.DailyCandle
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to archive
	out, err := c.inner.Find(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, TimeUntilNextMidnight(c.now(), c.loc)).Err()
	}

	return out, nil
}

func (c *CachingCandleArchive) cacheKey(symbol string, limit int) string {
	return fmt.Sprintf("%s%d", c.cacheKeyPrefix(symbol), limit)
}

func (c *CachingCandleArchive) cacheKeyPrefix(symbol string) string {
	return fmt.Sprintf("%s:%s:", c.namespace, safe(symbol))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingCandleArchive) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}
