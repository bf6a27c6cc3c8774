package di

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	tickeradapters "ticker_backend/internal/feature/ticker/adapters"
	"ticker_backend/internal/feature/ticker/usecase"
	"ticker_backend/internal/platform/cache"
	platformdb "ticker_backend/internal/platform/db"
)

// NewSnapshotStore creates the SnapshotStore implementation.
// The JSON file is always the source of truth; if Redis is available, it is mirrored there.
func NewSnapshotStore(dataFile string, rdb *redis.Client, ttl time.Duration) usecase.SnapshotStore {
	file := tickeradapters.NewFileSnapshotStore(dataFile)
	if rdb != nil {
		return cache.NewCachingSnapshotStore(rdb, ttl, file, "ticker")
	}
	return file
}

// NewCandleArchive returns a gorm-backed archive, or nil when no database is configured.
// If Redis is available, reads are cached until the next exchange-day rollover.
func NewCandleArchive(db *gorm.DB, rdb *redis.Client) usecase.CandleArchive {
	if db == nil {
		return nil
	}
	repo := tickeradapters.NewCandleRepository(db)
	if rdb != nil {
		return cache.NewCachingCandleArchive(rdb, repo, usecase.ExchangeLocation(), "candles")
	}
	return repo
}

// OpenArchiveDB opens the candle archive database when one is configured.
// A database that stays unreachable is logged and reported as nil so the server
// keeps serving candles from the snapshot's price history.
func OpenArchiveDB(cfg platformdb.Config) *gorm.DB {
	if cfg.Driver == "" {
		return nil
	}
	db, err := platformdb.OpenDB(cfg)
	if err != nil {
		slog.Error("Candle archive database unavailable. Serving candles from the snapshot.", "driver", cfg.Driver, "error", err)
		return nil
	}
	return db
}
