package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"ticker_backend/internal/feature/ticker/domain/entity"
	"ticker_backend/internal/feature/ticker/usecase"
)

// CachingSnapshotStore decorates a SnapshotStore with a Redis mirror.
// Saves go to the inner store first; Loads fall back to Redis when the inner store is empty or unreadable.
type CachingSnapshotStore struct {
	inner     usecase.SnapshotStore
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.SnapshotStore = (*CachingSnapshotStore)(nil)

// NewCachingSnapshotStore decorates a SnapshotStore with Redis caching.
// A ttl of 0 keeps the key without expiry. If namespace is empty, it uses "ticker".
func NewCachingSnapshotStore(rdb *redis.Client, ttl time.Duration, inner usecase.SnapshotStore, namespace string) *CachingSnapshotStore {
	if ttl < 0 {
		ttl = 0
	}
	if namespace == "" {
		namespace = "ticker"
	}
	return &CachingSnapshotStore{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Save persists the state to the inner store and mirrors it to Redis.
func (c *CachingSnapshotStore) Save(ctx context.Context, state *entity.TickerState) error {
	if err := c.inner.Save(ctx, state); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}

	// Best effort: the inner store is the source of truth
	b, err := json.Marshal(state)
	if err != nil {
		return nil
	}
	if err := c.rdb.Set(ctx, c.cacheKey(state.Symbol), b, c.ttl).Err(); err != nil {
		slog.Warn("failed to mirror snapshot to redis", "error", err)
	}
	if err := c.rdb.Set(ctx, c.latestKey(), state.Symbol, c.ttl).Err(); err != nil {
		slog.Warn("failed to record latest snapshot symbol", "error", err)
	}
	return nil
}

// Load returns the snapshot from the inner store. Redis is consulted only when the
// inner store has nothing or fails, since a mirror write may have been dropped.
func (c *CachingSnapshotStore) Load(ctx context.Context) (*entity.TickerState, error) {
	st, innerErr := c.inner.Load(ctx)
	if innerErr == nil && st != nil {
		return st, nil
	}
	if c.rdb == nil {
		if innerErr != nil {
			return nil, fmt.Errorf("load snapshot from inner store: %w", innerErr)
		}
		return nil, nil
	}

	if cached := c.loadMirror(ctx); cached != nil {
		if innerErr != nil {
			slog.Warn("snapshot store unreadable, using redis mirror", "error", innerErr)
		}
		return cached, nil
	}
	if innerErr != nil {
		return nil, fmt.Errorf("load snapshot from inner store: %w", innerErr)
	}
	return nil, nil
}

// loadMirror reads the last mirrored snapshot. Corrupted entries are deleted.
func (c *CachingSnapshotStore) loadMirror(ctx context.Context) *entity.TickerState {
	symbol, err := c.rdb.Get(ctx, c.latestKey()).Result()
	if err != nil || symbol == "" {
		return nil
	}
	key := c.cacheKey(symbol)
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return nil
	}
	var st entity.TickerState
	if err := json.Unmarshal(b, &st); err != nil {
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
		return nil
	}
	return &st
}

// cacheKey generates the Redis key for a symbol's snapshot.
func (c *CachingSnapshotStore) cacheKey(symbol string) string {
	return fmt.Sprintf("%s:snapshot:%s", c.namespace, safe(symbol))
}

// latestKey points at the symbol whose snapshot was saved last.
func (c *CachingSnapshotStore) latestKey() string {
	return c.namespace + ":latest"
}
