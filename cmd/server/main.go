package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ticker_backend/internal/app/di"
	"ticker_backend/internal/app/router"
	"ticker_backend/internal/app/scheduler"
	tickerhandler "ticker_backend/internal/feature/ticker/transport/handler"
	"ticker_backend/internal/feature/ticker/usecase"
	"ticker_backend/internal/platform/config"
	platformdb "ticker_backend/internal/platform/db"
	"ticker_backend/internal/platform/externalapi/pexels"
	platformhandler "ticker_backend/internal/platform/http/handler"
	"ticker_backend/internal/platform/logger"
	"ticker_backend/internal/platform/metrics"
	platformredis "ticker_backend/internal/platform/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run はサーバーを起動し、シグナルを受けるまでブロックします。
// deferした後処理（ログのフラッシュ等）を確実に実行するため、終了コードはmainで決めます。
func run() error {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logCloser := logger.Init(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	defer func() { _ = logCloser.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis（任意）
	var rdb *redisv9.Client
	if cfg.RedisEnabled() {
		tmp, err := platformredis.NewRedisClient(ctx, platformredis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			slog.Warn("Redis unavailable. Running without snapshot cache.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// ローソク足アーカイブ用DB（任意）。接続できなくても priceHistory で動作を続ける
	var db *gorm.DB
	if cfg.DatabaseEnabled() {
		db = di.OpenArchiveDB(platformdb.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	}

	// Repository
	store := di.NewSnapshotStore(cfg.Ticker.DataFile, rdb, cfg.Redis.TTL)
	archive := di.NewCandleArchive(db, rdb)
	images := di.NewImageProvider(pexels.Config{
		APIKey:           cfg.Pexels.APIKey,
		BaseURL:          cfg.Pexels.BaseURL,
		Timeout:          cfg.Pexels.Timeout,
		RateLimitPerHour: cfg.Pexels.RateLimit,
	})
	if cfg.Pexels.APIKey == "" {
		slog.Warn("PEXELS_API_KEY is not set. Automated news will be posted without images.")
	}
	recorder := metrics.New()

	// Usecase
	state := usecase.LoadState(ctx, store, cfg.Ticker.AdminPassword, time.Now())
	tickerUC := usecase.NewTickerUsecase(state, usecase.Dependencies{
		Store:        store,
		Images:       images,
		Archive:      archive,
		Metrics:      recorder,
		ImageTimeout: cfg.Pexels.Timeout,
	})
	if err := tickerUC.SyncArchive(ctx); err != nil {
		slog.Warn("candle archive backfill failed", "error", err)
	}

	// Scheduler
	sched := scheduler.New(ctx, tickerUC, scheduler.Config{
		TickInterval:      cfg.Ticker.TickInterval,
		NewsCheckInterval: cfg.Ticker.NewsCheckInterval,
	})
	if err := sched.RegisterAll(); err != nil {
		return fmt.Errorf("register scheduled jobs: %w", err)
	}
	sched.Start()
	go sched.RunNewsCheckNow()

	// Handler
	tickerH := tickerhandler.NewTickerHandler(tickerUC)
	healthH := platformhandler.NewHealthHandler(tickerUC)

	// ルータ生成
	r := router.NewRouter(tickerH, healthH, router.Options{
		CORSAllowOrigin: cfg.Server.CORSAllowOrigin,
		Metrics:         recorder.Handler(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Engine Xie unstoppable server running", "port", cfg.Server.Port, "symbol", tickerUC.Symbol())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
		close(serveErr)
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	sched.Stop(shutdownTimeout)

	if err := <-serveErr; err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
