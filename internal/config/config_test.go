package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CARTERA_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, 1000.0, cfg.DefaultUSDRate)
	assert.Equal(t, "bolsa", cfg.PriceRefresh.DolarCasa)
	assert.Equal(t, 10000, cfg.Optimizer.Simulations)
	assert.Equal(t, 15*time.Second, cfg.Optimizer.FetchTimeout)
	assert.False(t, cfg.Backup.Enabled)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CARTERA_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_USD_RATE", "1250.5")
	t.Setenv("OPTIMIZER_FETCH_TIMEOUT", "3s")
	t.Setenv("OPTIMIZER_SIMULATIONS", "5000")
	t.Setenv("PRICE_REFRESH_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 1250.5, cfg.DefaultUSDRate)
	assert.Equal(t, 3*time.Second, cfg.Optimizer.FetchTimeout)
	assert.Equal(t, 5000, cfg.Optimizer.Simulations)
	assert.False(t, cfg.PriceRefresh.Enabled)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CARTERA_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "not-a-number")
	t.Setenv("HISTORY_CACHE_TTL", "forever")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, 12*time.Hour, cfg.Optimizer.HistoryCacheTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = 70000 }},
		{"zero usd rate", func(c *Config) { c.DefaultUSDRate = 0 }},
		{"too many simulations", func(c *Config) { c.Optimizer.Simulations = c.Optimizer.MaxSimulations + 1 }},
		{"negative retries", func(c *Config) { c.Optimizer.FetchRetries = -1 }},
		{"backup without bucket", func(c *Config) { c.Backup.Enabled = true; c.Backup.Bucket = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CARTERA_DATA_DIR", t.TempDir())
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
