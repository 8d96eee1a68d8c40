package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so a developer's shell does not
// leak into the test.
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"FACTORLENS_DATA_DIR", "PORT", "DEV_MODE", "LOG_LEVEL", "CACHE_BACKEND",
		"PORTFOLIO_CACHE_DIR", "VERCEL", "AWS_LAMBDA_FUNCTION_NAME", "REDIS_ADDR",
		"REDIS_PASSWORD", "REDIS_DB", "UPSTREAM_RPS", "UPSTREAM_BURST",
		"UPSTREAM_TIMEOUT", "UPSTREAM_USER_AGENT", "FACTORSTODAY_API_KEY",
		"FINNHUB_KEY", "FINNHUB_API_KEY", "S3_BUCKET", "S3_ENDPOINT", "S3_REGION",
		"S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_PREFIX",
		"CLASSIFICATION_OVERRIDES", "SECTOR_SEED_PATH", "FACTOR_WINDOW", "RUN_RETENTION",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("FACTORLENS_DATA_DIR", filepath.Join(dir, "data"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.DirExists(t, cfg.DataDir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, CacheBackendSQLite, cfg.Cache.Backend)
	assert.False(t, cfg.Cache.Serverless)
	assert.Equal(t, 5.0, cfg.Upstream.RequestsPerSecond)
	assert.Equal(t, 10, cfg.Upstream.Burst)
	assert.Equal(t, 20*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 252, cfg.DefaultFactorWindow)
	assert.Equal(t, 90*24*time.Hour, cfg.RunRetention)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("FACTORLENS_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9100")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "portfolio")
	t.Setenv("FINNHUB_API_KEY", "legacy")
	t.Setenv("UPSTREAM_TIMEOUT", "5s")
	t.Setenv("S3_BUCKET", "exports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 3, cfg.Cache.RedisDB)
	assert.True(t, cfg.Cache.Serverless)
	assert.Equal(t, "legacy", cfg.Providers.FinnhubAPIKey)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.True(t, cfg.S3.Enabled())
}

func TestLoad_FinnhubKeyPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("FACTORLENS_DATA_DIR", t.TempDir())
	t.Setenv("FINNHUB_KEY", "primary")
	t.Setenv("FINNHUB_API_KEY", "legacy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.Providers.FinnhubAPIKey)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FACTORLENS_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "not-a-number")
	t.Setenv("DEV_MODE", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DevMode)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:                8080,
			DefaultFactorWindow: 252,
			Cache:               CacheConfig{Backend: CacheBackendFile},
			Upstream:            UpstreamConfig{RequestsPerSecond: 1, Burst: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, true},
		{"bad port", func(c *Config) { c.Port = 70000 }, true},
		{"zero window", func(c *Config) { c.DefaultFactorWindow = 0 }, true},
		{"zero rps", func(c *Config) { c.Upstream.RequestsPerSecond = 0 }, true},
		{"half key pair", func(c *Config) { c.S3.AccessKeyID = "id" }, true},
		{"full key pair", func(c *Config) { c.S3.AccessKeyID = "id"; c.S3.SecretAccessKey = "secret" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
