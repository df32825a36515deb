package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Scan.TopN)
	assert.Equal(t, 8, cfg.Scan.Concurrency)
	assert.Equal(t, 25*time.Second, cfg.Scan.SymbolTimeout)
	assert.Equal(t, 7, cfg.Options.MinDTE)
	assert.Equal(t, 21, cfg.Options.MaxDTE)
	assert.Equal(t, int64(300), cfg.Options.Strict.MinVolume)
	assert.Equal(t, 12.0, cfg.Options.Relaxed.MaxSpreadPct)
	assert.Equal(t, 10*time.Minute, cfg.Earnings.CacheTTL)
	assert.True(t, cfg.Options.Enabled)
	assert.True(t, cfg.Earnings.Enabled)
	assert.True(t, cfg.News.Enabled)
	assert.Equal(t, 12, cfg.News.Limit)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
scan:
  top_n: 5
  plan_strategy: fixed
  symbol_timeout: 10s
options:
  enabled: false
  min_dte: 5
  max_dte: 14
universe:
  scan_universe: [aapl, msft]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("SCAN_CONCURRENCY", "4")
	t.Setenv("ALL_TICKERS", "nvda, tsla")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Scan.TopN)
	assert.Equal(t, 4, cfg.Scan.Concurrency)
	assert.Equal(t, "fixed", cfg.Scan.PlanStrategy)
	assert.Equal(t, 10*time.Second, cfg.Scan.SymbolTimeout)
	assert.False(t, cfg.Options.Enabled)
	assert.Equal(t, 5, cfg.Options.MinDTE)
	assert.Equal(t, []string{"NVDA", "TSLA"}, cfg.Universe.AllTickers)
	assert.Equal(t, []string{"aapl", "msft"}, cfg.Universe.ScanUniverse)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"concurrency too high", func(c *Config) { c.Scan.Concurrency = 50 }},
		{"unknown strategy", func(c *Config) { c.Scan.PlanStrategy = "yolo" }},
		{"unknown window policy", func(c *Config) { c.Scan.WindowPolicy = "tiny" }},
		{"inverted dte band", func(c *Config) { c.Options.MinDTE, c.Options.MaxDTE = 20, 10 }},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSplitSymbols(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT", "BRK.B"}, SplitSymbols(" aapl,msft ; brk.b "))
	assert.Empty(t, SplitSymbols(""))
}
