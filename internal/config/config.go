package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// RedisConfig holds the snapshot cache backend configuration. An empty Addr
// disables caching and every read goes straight to the store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig holds read cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// BoardConfig holds board read-side configuration
type BoardConfig struct {
	ReadLimit int `mapstructure:"read_limit"`
}

// RetentionConfig holds retention engine configuration
type RetentionConfig struct {
	CutoffDays int    `mapstructure:"cutoff_days"`
	BatchSize  int    `mapstructure:"batch_size"`
	Schedule   string `mapstructure:"schedule"` // cron expression; empty = run once and exit
}

// SeederConfig holds dummy data seeder configuration
type SeederConfig struct {
	Count   int `mapstructure:"count"`
	Workers int `mapstructure:"workers"`
}

// ScraperConfig holds news scraper configuration
type ScraperConfig struct {
	NewsURL     string        `mapstructure:"news_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	MaxRetries  uint64        `mapstructure:"max_retries"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig    `mapstructure:"server"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Redis      RedisConfig     `mapstructure:"redis"`
	Cache      CacheConfig     `mapstructure:"cache"`
	Board      BoardConfig     `mapstructure:"board"`
	Retention  RetentionConfig `mapstructure:"retention"`
}

// SweeperConfig holds configuration for the retention sweeper program
type SweeperConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Redis      RedisConfig     `mapstructure:"redis"`
	Cache      CacheConfig     `mapstructure:"cache"`
	Retention  RetentionConfig `mapstructure:"retention"`
}

// SeederProgramConfig holds configuration for the seeder program
type SeederProgramConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Cache      CacheConfig    `mapstructure:"cache"`
	Seeder     SeederConfig   `mapstructure:"seeder"`
}

// ScraperProgramConfig holds configuration for the scraper program
type ScraperProgramConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Cache      CacheConfig    `mapstructure:"cache"`
	Scraper    ScraperConfig  `mapstructure:"scraper"`
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	setDatabaseDefaults(v)
	setCacheDefaults(v)
	v.SetDefault("board.read_limit", 500)
	v.SetDefault("retention.batch_size", 400)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// LoadSweeperConfig loads configuration for the retention sweeper program
func LoadSweeperConfig(configFile string, envPath string) (*SweeperConfig, error) {
	v := configureViper("sweeper", configFile, envPath)

	// Set defaults
	setDatabaseDefaults(v)
	setCacheDefaults(v)
	v.SetDefault("retention.cutoff_days", 90)
	v.SetDefault("retention.batch_size", 400)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg SweeperConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}
	if cfg.Retention.CutoffDays <= 0 {
		return nil, errors.New("retention.cutoff_days must be positive")
	}

	return &cfg, nil
}

// LoadSeederConfig loads configuration for the seeder program
func LoadSeederConfig(configFile string, envPath string) (*SeederProgramConfig, error) {
	v := configureViper("seeder", configFile, envPath)

	// Set defaults
	setDatabaseDefaults(v)
	setCacheDefaults(v)
	v.SetDefault("seeder.count", 50)
	v.SetDefault("seeder.workers", 8)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg SeederProgramConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadScraperConfig loads configuration for the scraper program
func LoadScraperConfig(configFile string, envPath string) (*ScraperProgramConfig, error) {
	v := configureViper("scraper", configFile, envPath)

	// Set defaults
	setDatabaseDefaults(v)
	setCacheDefaults(v)
	v.SetDefault("scraper.news_url", "https://www.infosawit.com/news/")
	v.SetDefault("scraper.http_timeout", "10s")
	v.SetDefault("scraper.max_retries", 3)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg ScraperProgramConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "10m")
}

func setCacheDefaults(v *viper.Viper) {
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.ttl", "5m")
}

// readConfig reads the config file, tolerating a missing file so pure
// environment-variable deployments keep working.
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/sweeper/, cmd/api/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("PRICE_BOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.auto_migrate",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",
		// Cache
		"cache.ttl",
		// Board
		"board.read_limit",
		// Retention
		"retention.cutoff_days",
		"retention.batch_size",
		"retention.schedule",
		// Seeder
		"seeder.count",
		"seeder.workers",
		// Scraper
		"scraper.news_url",
		"scraper.http_timeout",
		"scraper.max_retries",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
