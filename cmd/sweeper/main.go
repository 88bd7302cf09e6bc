package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mentawai-market/price-board/internal/cache"
	"github.com/mentawai-market/price-board/internal/config"
	"github.com/mentawai-market/price-board/internal/logger"
	"github.com/mentawai-market/price-board/internal/retention"
	"github.com/mentawai-market/price-board/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "retention-sweeper",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting retention sweeper",
		zap.Int("cutoff_days", cfg.Retention.CutoffDays),
		zap.String("schedule", cfg.Retention.Schedule),
	)

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}

	dataStore := store.NewPGStore(db)

	// Snapshot cache, so a sweep is visible on the next read
	var snapshot *cache.Snapshot
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		snapshot = cache.NewSnapshot(cache.NewRedisKV(redisClient), cfg.Cache.TTL, logger.Default())
	}

	purger := retention.NewPurger(dataStore, snapshot, cfg.Retention.BatchSize, nil, logger.Default())

	sweep := func(ctx context.Context) {
		deleted, err := purger.PurgeOlderThan(ctx, cfg.Retention.CutoffDays)
		if err != nil {
			logger.Error(err, zap.Int64("deleted", deleted))
			return
		}
		logger.Info("Sweep finished", zap.Int64("deleted", deleted))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One-shot mode when no schedule is configured
	if cfg.Retention.Schedule == "" {
		sweep(ctx)
		return
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Retention.Schedule, func() { sweep(ctx) })
	if err != nil {
		logger.Fatal("Invalid sweep schedule", zap.Error(err), zap.String("schedule", cfg.Retention.Schedule))
	}
	scheduler.Start()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	cancel()
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("Timed out waiting for running sweep")
	}

	logger.Info("Retention sweeper stopped")
}
