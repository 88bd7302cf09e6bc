package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mentawai-market/price-board/internal/cache"
	"github.com/mentawai-market/price-board/internal/config"
	"github.com/mentawai-market/price-board/internal/logger"
	"github.com/mentawai-market/price-board/internal/scraper"
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
	cfg, err := config.LoadScraperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "scraper",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting news scraper", zap.String("news_url", cfg.Scraper.NewsURL))

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}

	dataStore := store.NewPGStore(db)

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

	sc := scraper.New(scraper.Config{
		NewsURL:     cfg.Scraper.NewsURL,
		HTTPTimeout: cfg.Scraper.HTTPTimeout,
		MaxRetries:  cfg.Scraper.MaxRetries,
	}, dataStore, snapshot, nil, logger.Default())

	appended, err := sc.Run(context.Background())
	if err != nil {
		logger.Fatal("Scrape failed", zap.Error(err), zap.Int("appended", appended))
	}
	logger.Info("Scrape finished", zap.Int("appended", appended))
}
