package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/search-analytics/internal/api"
	"github.com/jonesrussell/search-analytics/internal/attribution"
	"github.com/jonesrussell/search-analytics/internal/cache"
	"github.com/jonesrussell/search-analytics/internal/config"
	"github.com/jonesrussell/search-analytics/internal/geoip"
	"github.com/jonesrussell/search-analytics/internal/handler"
	"github.com/jonesrussell/search-analytics/internal/logger"
	"github.com/jonesrussell/search-analytics/internal/metrics"
	"github.com/jonesrussell/search-analytics/internal/recorder"
	"github.com/jonesrussell/search-analytics/internal/storage"
	"github.com/jonesrussell/search-analytics/internal/upstream"

	_ "github.com/lib/pq"
)

// Database connection timeout.
const dbPingTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	db, err := connectDatabase(cfg, log)
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err))
		return 1
	}
	defer func() { _ = db.Close() }()

	return runServer(cfg, log, db)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	configPath := config.GetConfigPath("config.yml")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// connectDatabase opens and verifies a database connection.
func connectDatabase(cfg *config.Config, log logger.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	log.Info("Database connected",
		logger.String("host", cfg.Database.Host),
		logger.Int("port", cfg.Database.Port),
		logger.String("database", cfg.Database.Database),
	)

	return db, nil
}

// connectCache creates the Redis client. Cache unavailability is not
// fatal: the store degrades to misses and the service keeps serving.
func connectCache(cfg *config.Config, log logger.Logger) *cache.Store {
	client, err := cache.NewClient(cache.ClientConfig{
		Address:  cfg.Cache.Address,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if err != nil {
		log.Warn("Response cache unavailable, continuing without it",
			logger.String("address", cfg.Cache.Address),
			logger.Error(err),
		)
	} else {
		log.Info("Response cache connected",
			logger.String("address", cfg.Cache.Address),
		)
	}

	policy := cache.TTLPolicy{
		Endpoints: map[string]time.Duration{
			"suggest":         cfg.Cache.TTLSuggest,
			"suggestPeople":   cfg.Cache.TTLSuggestPeople,
			"suggestPrograms": cfg.Cache.TTLSuggestPrograms,
			"search":          cfg.Cache.TTLSearch,
		},
		Default: cfg.Cache.TTLDefault,
	}
	return cache.NewStore(client, policy, cfg.Cache.CallTimeout, log)
}

// runServer creates all dependencies and starts the HTTP server.
func runServer(cfg *config.Config, log logger.Logger, db *sql.DB) int {
	expiry := storage.ExpiryPolicy{
		SuggestTTL: cfg.Analytics.SuggestRecordTTL(),
		SearchTTL:  cfg.Analytics.SearchRecordTTL(),
	}
	store := storage.NewStore(db, expiry, cfg.Analytics.StoreTimeout, log)

	sweeper := storage.NewSweeper(store, cfg.Analytics.SweepInterval, cfg.Analytics.SweepLimit, log)
	sweeper.Start()
	defer sweeper.Stop()

	cacheStore := connectCache(cfg, log)
	upstreamClient := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, log)

	rec := recorder.New(store, geoip.NopResolver{}, log)
	engine := attribution.NewEngine(store, cfg.Analytics.AttributionWindow, log)
	m := metrics.New()

	handlers := api.Handlers{
		Proxy:     handler.NewProxyHandler(upstreamClient, cacheStore, rec, m, log),
		Analytics: handler.NewAnalyticsHandler(rec, engine, store, m, log),
		Admin:     handler.NewAdminHandler(store, cacheStore, cfg.Analytics.BackfillBatchSize, log),
		Health:    handler.NewHealthHandler(cfg.Service.Version, store, cacheStore),
	}

	server := api.NewServer(cfg, log, func(router *gin.Engine) {
		api.SetupRoutes(router, handlers, m, cfg.RateLimit)
	})

	log.Info("Search analytics starting",
		logger.Int("port", cfg.Service.Port),
		logger.String("upstream", cfg.Upstream.BaseURL),
	)

	if err := server.Run(); err != nil {
		log.Error("Server error", logger.Error(err))
		return 1
	}

	log.Info("Search analytics exited cleanly")
	return 0
}
