// Package db はアーカイブ用データベースへの接続とマイグレーションを提供します。
package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	tickeradapters "ticker_backend/internal/feature/ticker/adapters"
)

// DefaultConnectTimeout は起動時に接続を試み続ける最大時間です。
const DefaultConnectTimeout = 60 * time.Second

// Config はデータベース接続設定です。
type Config struct {
	Driver         string // "sqlite" または "postgres"
	DSN            string
	ConnectTimeout time.Duration
}

// Opener はDSNからgorm.DBを開く関数です。テストで差し替えられます。
type Opener func(dsn string) (*gorm.DB, error)

// Dialector はドライバー名に対応するgormのDialectorを返します。
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// NewOpener は指定ドライバー用のOpenerを生成します。
func NewOpener(driver string) Opener {
	return func(dsn string) (*gorm.DB, error) {
		dial, err := Dialector(driver, dsn)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	}
}

// newConnectBackOff は接続リトライ用の指数バックオフを生成します。
func newConnectBackOff(timeout time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = timeout
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.1
	return b
}

// ConnectWithRetry はtimeoutに達するまで指数バックオフで接続を再試行します。
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	var db *gorm.DB
	operation := func() error {
		var err error
		db, err = opener(dsn)
		return err
	}

	err := backoff.RetryNotify(operation, newConnectBackOff(timeout),
		func(err error, next time.Duration) {
			slog.Warn("DB connect failed, retrying", "error", err, "retry_in", next)
		})
	if err != nil {
		return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
	}
	return db, nil
}

// Migrate はアーカイブ用のテーブルを作成・更新します。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&tickeradapters.CandleModel{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// OpenDB は接続を確立し、マイグレーションを実行したgorm.DBを返します。
func OpenDB(cfg Config) (*gorm.DB, error) {
	if _, err := Dialector(cfg.Driver, cfg.DSN); err != nil {
		return nil, err
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	db, err := ConnectWithRetry(cfg.DSN, timeout, NewOpener(cfg.Driver))
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}

	slog.Info("database ready", "driver", cfg.Driver)
	return db, nil
}
