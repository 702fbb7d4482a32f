package config

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	defaultServiceName  = "search-analytics"
	defaultServicePort  = 8094
	defaultVersion      = "0.1.0"
	defaultShutdownS    = 10
	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"

	defaultDBHost    = "localhost"
	defaultDBPort    = 5432
	defaultDBName    = "search_analytics"
	defaultDBUser    = "postgres"
	defaultDBSSLMode = "disable"

	defaultRedisAddress = "localhost:6379"
	defaultCacheTimeout = 3 * time.Second

	defaultTTLSuggest         = 600 * time.Second
	defaultTTLSuggestPeople   = 900 * time.Second
	defaultTTLSuggestPrograms = 1800 * time.Second
	defaultTTLSearch          = 300 * time.Second
	defaultTTLFallback        = 120 * time.Second

	defaultUpstreamTimeout = 10 * time.Second

	defaultSuggestRecordTTLDays = 30
	defaultSearchRecordTTLDays  = 60
	defaultAttributionWindowH   = 24
	defaultStoreTimeout         = 3 * time.Second
	defaultBackfillBatchSize    = 500
	defaultSweepInterval        = time.Hour
	defaultSweepLimit           = 1000

	defaultRateLimitPerSecond = 20
	defaultRateLimitBurst     = 40

	hoursPerDay = 24
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Port            int           `env:"SEARCH_ANALYTICS_PORT" yaml:"port"`
	Debug           bool          `env:"APP_DEBUG"             yaml:"debug"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// UpstreamConfig holds the hosted search engine connection settings.
type UpstreamConfig struct {
	BaseURL string        `env:"SEARCH_UPSTREAM_URL" yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseConfig holds PostgreSQL record store configuration.
type DatabaseConfig struct {
	Host     string `env:"POSTGRES_ANALYTICS_HOST"     yaml:"host"`
	Port     int    `env:"POSTGRES_ANALYTICS_PORT"     yaml:"port"`
	User     string `env:"POSTGRES_ANALYTICS_USER"     yaml:"user"`
	Password string `env:"POSTGRES_ANALYTICS_PASSWORD" yaml:"password"`
	Database string `env:"POSTGRES_ANALYTICS_DB"       yaml:"database"`
	SSLMode  string `env:"POSTGRES_ANALYTICS_SSLMODE"  yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// CacheConfig holds Redis response cache configuration. TTLs are policy
// values dispatched by endpoint category; tune freely.
type CacheConfig struct {
	Address     string        `env:"REDIS_ADDRESS"  yaml:"address"`
	Password    string        `env:"REDIS_PASSWORD" yaml:"password"`
	DB          int           `env:"REDIS_DB"       yaml:"db"`
	CallTimeout time.Duration `yaml:"call_timeout"`

	TTLSuggest         time.Duration `yaml:"ttl_suggest"`
	TTLSuggestPeople   time.Duration `yaml:"ttl_suggest_people"`
	TTLSuggestPrograms time.Duration `yaml:"ttl_suggest_programs"`
	TTLSearch          time.Duration `yaml:"ttl_search"`
	TTLDefault         time.Duration `yaml:"ttl_default"`
}

// AnalyticsConfig holds record expiry tiers and attribution policy.
type AnalyticsConfig struct {
	SuggestRecordTTLDays int           `yaml:"suggest_record_ttl_days"`
	SearchRecordTTLDays  int           `yaml:"search_record_ttl_days"`
	AttributionWindow    time.Duration `yaml:"attribution_window"`
	StoreTimeout         time.Duration `yaml:"store_timeout"`
	BackfillBatchSize    int           `yaml:"backfill_batch_size"`
	SweepInterval        time.Duration `yaml:"sweep_interval"`
	SweepLimit           int           `yaml:"sweep_limit"`
}

// SuggestRecordTTL returns the expiry duration for suggest-type records.
func (a *AnalyticsConfig) SuggestRecordTTL() time.Duration {
	return time.Duration(a.SuggestRecordTTLDays) * hoursPerDay * time.Hour
}

// SearchRecordTTL returns the expiry duration for search and click-only records.
func (a *AnalyticsConfig) SearchRecordTTL() time.Duration {
	return time.Duration(a.SearchRecordTTLDays) * hoursPerDay * time.Hour
}

// RateLimitConfig holds per-IP rate limiting for analytics write endpoints.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

// CORSConfig holds allowed origins for browser callers.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" yaml:"allowed_origins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return load(path, setDefaults)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setUpstreamDefaults(&cfg.Upstream)
	setDatabaseDefaults(&cfg.Database)
	setCacheDefaults(&cfg.Cache)
	setAnalyticsDefaults(&cfg.Analytics)
	setRateLimitDefaults(&cfg.RateLimit)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
	if svc.ShutdownTimeout == 0 {
		svc.ShutdownTimeout = defaultShutdownS * time.Second
	}
}

func setUpstreamDefaults(up *UpstreamConfig) {
	if up.Timeout == 0 {
		up.Timeout = defaultUpstreamTimeout
	}
}

func setDatabaseDefaults(db *DatabaseConfig) {
	if db.Host == "" {
		db.Host = defaultDBHost
	}
	if db.Port == 0 {
		db.Port = defaultDBPort
	}
	if db.User == "" {
		db.User = defaultDBUser
	}
	if db.Database == "" {
		db.Database = defaultDBName
	}
	if db.SSLMode == "" {
		db.SSLMode = defaultDBSSLMode
	}
}

func setCacheDefaults(c *CacheConfig) {
	if c.Address == "" {
		c.Address = defaultRedisAddress
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = defaultCacheTimeout
	}
	if c.TTLSuggest == 0 {
		c.TTLSuggest = defaultTTLSuggest
	}
	if c.TTLSuggestPeople == 0 {
		c.TTLSuggestPeople = defaultTTLSuggestPeople
	}
	if c.TTLSuggestPrograms == 0 {
		c.TTLSuggestPrograms = defaultTTLSuggestPrograms
	}
	if c.TTLSearch == 0 {
		c.TTLSearch = defaultTTLSearch
	}
	if c.TTLDefault == 0 {
		c.TTLDefault = defaultTTLFallback
	}
}

func setAnalyticsDefaults(a *AnalyticsConfig) {
	if a.SuggestRecordTTLDays == 0 {
		a.SuggestRecordTTLDays = defaultSuggestRecordTTLDays
	}
	if a.SearchRecordTTLDays == 0 {
		a.SearchRecordTTLDays = defaultSearchRecordTTLDays
	}
	if a.AttributionWindow == 0 {
		a.AttributionWindow = defaultAttributionWindowH * time.Hour
	}
	if a.StoreTimeout == 0 {
		a.StoreTimeout = defaultStoreTimeout
	}
	if a.BackfillBatchSize == 0 {
		a.BackfillBatchSize = defaultBackfillBatchSize
	}
	if a.SweepInterval == 0 {
		a.SweepInterval = defaultSweepInterval
	}
	if a.SweepLimit == 0 {
		a.SweepLimit = defaultSweepLimit
	}
}

func setRateLimitDefaults(rl *RateLimitConfig) {
	if rl.RequestsPerSecond == 0 {
		rl.RequestsPerSecond = defaultRateLimitPerSecond
	}
	if rl.Burst == 0 {
		rl.Burst = defaultRateLimitBurst
	}
}

func setLoggingDefaults(log *LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if c.Upstream.BaseURL == "" {
		return &ValidationError{
			Field:   "upstream.base_url",
			Message: "is required",
		}
	}
	if c.Analytics.SuggestRecordTTLDays >= c.Analytics.SearchRecordTTLDays {
		return &ValidationError{
			Field:   "analytics.suggest_record_ttl_days",
			Message: "must be shorter than search_record_ttl_days",
		}
	}
	return nil
}
