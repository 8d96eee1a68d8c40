// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backends.
const (
	CacheBackendSQLite = "sqlite"
	CacheBackendFile   = "file"
	CacheBackendRedis  = "redis"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for databases (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	Cache     CacheConfig
	Upstream  UpstreamConfig
	Providers ProviderConfig
	S3        S3Config

	ClassificationOverridesPath string // YAML file of manual classifications
	SectorSeedPath              string // JSON list of S&P 500 constituents
	DefaultFactorWindow         int
	RunRetention                time.Duration // stored analyses older than this are deleted; 0 keeps all
}

// CacheConfig selects and configures the provider response cache.
type CacheConfig struct {
	Backend       string
	Dir           string // explicit directory for the file backend
	Serverless    bool   // running on a serverless host; prefer the tmp dir
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// UpstreamConfig tunes outbound HTTP to data providers.
type UpstreamConfig struct {
	RequestsPerSecond float64 // per host
	Burst             int
	Timeout           time.Duration
	UserAgent         string
}

// ProviderConfig holds credentials for optional data providers.
type ProviderConfig struct {
	FactorsTodayAPIKey string
	FinnhubAPIKey      string
}

// S3Config points at an S3-compatible bucket for published run exports.
// Publishing is disabled when Bucket is empty.
type S3Config struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// Enabled reports whether a bucket is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FACTORLENS_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Cache: CacheConfig{
			Backend:       strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendSQLite)),
			Dir:           getEnv("PORTFOLIO_CACHE_DIR", ""),
			Serverless:    getEnv("VERCEL", "") != "" || getEnv("AWS_LAMBDA_FUNCTION_NAME", "") != "",
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
		},
		Upstream: UpstreamConfig{
			RequestsPerSecond: getEnvAsFloat("UPSTREAM_RPS", 5),
			Burst:             getEnvAsInt("UPSTREAM_BURST", 10),
			Timeout:           getEnvAsDuration("UPSTREAM_TIMEOUT", 20*time.Second),
			UserAgent:         getEnv("UPSTREAM_USER_AGENT", "Mozilla/5.0 (compatible; factorlens/1.0)"),
		},
		Providers: ProviderConfig{
			FactorsTodayAPIKey: getEnv("FACTORSTODAY_API_KEY", ""),
			FinnhubAPIKey:      getEnv("FINNHUB_KEY", getEnv("FINNHUB_API_KEY", "")),
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "auto"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("S3_PREFIX", "factorlens/runs"),
		},
		ClassificationOverridesPath: getEnv("CLASSIFICATION_OVERRIDES", ""),
		SectorSeedPath:              getEnv("SECTOR_SEED_PATH", ""),
		DefaultFactorWindow:         getEnvAsInt("FACTOR_WINDOW", 252),
		RunRetention:                getEnvAsDuration("RUN_RETENTION", 90*24*time.Hour),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendSQLite, CacheBackendFile, CacheBackendRedis:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q (want sqlite, file or redis)", c.Cache.Backend)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}

	if c.DefaultFactorWindow <= 0 {
		return fmt.Errorf("FACTOR_WINDOW must be positive, got %d", c.DefaultFactorWindow)
	}

	if c.Upstream.RequestsPerSecond <= 0 || c.Upstream.Burst <= 0 {
		return fmt.Errorf("UPSTREAM_RPS and UPSTREAM_BURST must be positive")
	}

	// A bucket without credentials falls back to the default AWS chain,
	// but half a key pair is always a mistake.
	if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
