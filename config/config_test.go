package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", t.TempDir()) // no config.yaml there

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, 0.9, cfg.Scanner.FillTolerance)
	assert.Equal(t, 0.01, cfg.Scanner.MinProfitPercent)
	assert.Equal(t, 50, cfg.Scanner.BookDepth)
	assert.Equal(t, 3, cfg.Scanner.BookBatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Scanner.BookBatchDelay)
	assert.Equal(t, 10, cfg.Scanner.TopN)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 1000, cfg.Ledger.MaxHistory)

	assert.Equal(t, FeeConfig{Maker: 0.0016, Taker: 0.0026}, cfg.Fee("kraken"))
	assert.Equal(t, DefaultFee, cfg.Fee("unknown-exchange"))

	assert.NotEmpty(t, cfg.Preset("memecoins"))
	assert.NotEmpty(t, cfg.Preset("all"))
	// Unknown preset names resolve to the full list.
	assert.Equal(t, cfg.Preset("all"), cfg.Preset("nope"))
}

func TestLoad_YAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := `
scanner:
  fill_tolerance: 0.95
  top_n: 5
scheduler:
  enabled: false
fees:
  kraken:
    maker: 0.001
    taker: 0.002
presets:
  watchlist:
    - "BTC/USDT"
    - "ETH/USDT"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("CONFIG_PATH", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.95, cfg.Scanner.FillTolerance)
	assert.Equal(t, 5, cfg.Scanner.TopN)
	assert.False(t, cfg.Scheduler.Enabled)
	// Unset keys keep their defaults.
	assert.Equal(t, 50, cfg.Scanner.BookDepth)

	assert.Equal(t, FeeConfig{Maker: 0.001, Taker: 0.002}, cfg.Fee("kraken"))
	// Exchanges without overrides keep the coded schedule.
	assert.Equal(t, FeeConfig{Maker: 0, Taker: 0.0005}, cfg.Fee("mexc"))

	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, cfg.Preset("watchlist"))
	assert.NotEmpty(t, cfg.Preset("largecap"))
}
