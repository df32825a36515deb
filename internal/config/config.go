package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LiquidityTier holds option filter thresholds for one tier.
type LiquidityTier struct {
	MinVolume       int64   `yaml:"min_volume"`
	MinOpenInterest int64   `yaml:"min_open_interest"`
	MaxSpreadPct    float64 `yaml:"max_spread_pct"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Webhook struct {
		URL string `yaml:"url"`
	} `yaml:"webhook"`
	DataSource struct {
		BaseURL    string        `yaml:"base_url"`
		APIKey     string        `yaml:"api_key"`
		RatePerSec float64       `yaml:"rate_per_sec"`
		Burst      int           `yaml:"burst"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxRetries int           `yaml:"max_retries"`
	} `yaml:"data_source"`
	Scan struct {
		AnalyzePeriod   string        `yaml:"analyze_period"`
		AnalyzeInterval string        `yaml:"analyze_interval"`
		RankPeriod      string        `yaml:"rank_period"`
		RankInterval    string        `yaml:"rank_interval"`
		TopN            int           `yaml:"top_n"`
		Concurrency     int           `yaml:"concurrency"`
		SymbolTimeout   time.Duration `yaml:"symbol_timeout"`
		PlanStrategy    string        `yaml:"plan_strategy"`
		WindowPolicy    string        `yaml:"window_policy"`
		MinPrice        float64       `yaml:"min_price"`
		MinAvgVolume    float64       `yaml:"min_avg_volume"`
	} `yaml:"scan"`
	Options struct {
		Enabled bool          `yaml:"enabled"`
		MinDTE  int           `yaml:"min_dte"`
		MaxDTE  int           `yaml:"max_dte"`
		Strict  LiquidityTier `yaml:"strict"`
		Relaxed LiquidityTier `yaml:"relaxed"`
	} `yaml:"options"`
	Earnings struct {
		Enabled    bool          `yaml:"enabled"`
		WindowDays int           `yaml:"window_days"`
		CacheTTL   time.Duration `yaml:"cache_ttl"`
		InlineCap  int           `yaml:"inline_cap"`
	} `yaml:"earnings"`
	News struct {
		Enabled bool `yaml:"enabled"`
		Limit   int  `yaml:"limit"`
	} `yaml:"news"`
	Universe struct {
		SymbolsFile  string   `yaml:"symbols_file"`
		AllTickers   []string `yaml:"all_tickers"`
		ScanUniverse []string `yaml:"scan_universe"`
	} `yaml:"universe"`
	Schedule struct {
		DigestCron   string `yaml:"digest_cron"`
		EarningsCron string `yaml:"earnings_cron"`
		Timezone     string `yaml:"timezone"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Tracing struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"tracing"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, loads a .env file if present, then
// applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Options, earnings and news default to on; an explicit false in YAML still wins.
	cfg.Options.Enabled = true
	cfg.Earnings.Enabled = true
	cfg.News.Enabled = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	loadEnvFile()
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func loadEnvFile() {
	for _, p := range []string{".env", "../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

func (c *Config) applyEnv() {
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.Webhook.URL, "DISCORD_WEBHOOK_URL")
	setString(&c.DataSource.BaseURL, "DATA_BASE_URL")
	setString(&c.DataSource.APIKey, "DATA_API_KEY")
	setString(&c.Proxy, "HTTPS_PROXY")
	setString(&c.Universe.SymbolsFile, "SYMBOLS_FILE")
	setString(&c.Schedule.DigestCron, "CRON_DIGEST")
	setString(&c.Schedule.EarningsCron, "CRON_EARNINGS")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setInt(&c.Scan.TopN, "SCAN_TOP_N")
	setInt(&c.Scan.Concurrency, "SCAN_CONCURRENCY")
	setInt(&c.Earnings.WindowDays, "EARNINGS_WINDOW_DAYS")
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Tracing.Enabled = b
		}
	}
	if v := os.Getenv("ALL_TICKERS"); v != "" {
		c.Universe.AllTickers = SplitSymbols(v)
	}
	if v := os.Getenv("SCAN_UNIVERSE"); v != "" {
		c.Universe.ScanUniverse = SplitSymbols(v)
	}
}

func (c *Config) applyDefaults() {
	if c.DataSource.RatePerSec == 0 {
		c.DataSource.RatePerSec = 4
	}
	if c.DataSource.Burst == 0 {
		c.DataSource.Burst = 4
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 20 * time.Second
	}
	if c.DataSource.MaxRetries == 0 {
		c.DataSource.MaxRetries = 2
	}
	if c.Scan.AnalyzePeriod == "" {
		c.Scan.AnalyzePeriod = "1y"
	}
	if c.Scan.AnalyzeInterval == "" {
		c.Scan.AnalyzeInterval = "1d"
	}
	if c.Scan.RankPeriod == "" {
		c.Scan.RankPeriod = "5d"
	}
	if c.Scan.RankInterval == "" {
		c.Scan.RankInterval = "5m"
	}
	if c.Scan.TopN == 0 {
		c.Scan.TopN = 10
	}
	if c.Scan.Concurrency == 0 {
		c.Scan.Concurrency = 8
	}
	if c.Scan.SymbolTimeout == 0 {
		c.Scan.SymbolTimeout = 25 * time.Second
	}
	if c.Scan.PlanStrategy == "" {
		c.Scan.PlanStrategy = "atr"
	}
	if c.Scan.WindowPolicy == "" {
		c.Scan.WindowPolicy = "auto"
	}
	if c.Options.MinDTE == 0 && c.Options.MaxDTE == 0 {
		c.Options.MinDTE, c.Options.MaxDTE = 7, 21
	}
	if c.Options.Strict == (LiquidityTier{}) {
		c.Options.Strict = LiquidityTier{MinVolume: 300, MinOpenInterest: 500, MaxSpreadPct: 8}
	}
	if c.Options.Relaxed == (LiquidityTier{}) {
		c.Options.Relaxed = LiquidityTier{MinVolume: 100, MinOpenInterest: 100, MaxSpreadPct: 12}
	}
	if c.Earnings.WindowDays == 0 {
		c.Earnings.WindowDays = 7
	}
	if c.News.Limit == 0 {
		c.News.Limit = 12
	}
	if c.Earnings.CacheTTL == 0 {
		c.Earnings.CacheTTL = 10 * time.Minute
	}
	if c.Earnings.InlineCap == 0 {
		c.Earnings.InlineCap = 25
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 15 9 * * 1-5"
	}
	if c.Schedule.EarningsCron == "" {
		c.Schedule.EarningsCron = "0 0 7 * * 1-5"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "America/New_York"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Scan.TopN < 0 {
		return fmt.Errorf("scan.top_n must not be negative")
	}
	if c.Scan.Concurrency < 1 || c.Scan.Concurrency > 12 {
		return fmt.Errorf("scan.concurrency must be between 1 and 12, got %d", c.Scan.Concurrency)
	}
	if c.Scan.SymbolTimeout <= 0 {
		return fmt.Errorf("scan.symbol_timeout must be positive")
	}
	switch c.Scan.PlanStrategy {
	case "atr", "fixed":
	default:
		return fmt.Errorf("scan.plan_strategy must be atr or fixed, got %q", c.Scan.PlanStrategy)
	}
	switch c.Scan.WindowPolicy {
	case "auto", "standard", "adaptive":
	default:
		return fmt.Errorf("scan.window_policy must be auto, standard or adaptive, got %q", c.Scan.WindowPolicy)
	}
	if c.Options.MinDTE < 0 || c.Options.MaxDTE < c.Options.MinDTE {
		return fmt.Errorf("options dte band [%d, %d] is invalid", c.Options.MinDTE, c.Options.MaxDTE)
	}
	if c.Earnings.WindowDays < 0 {
		return fmt.Errorf("earnings.window_days must not be negative")
	}
	if c.DataSource.RatePerSec <= 0 {
		return fmt.Errorf("data_source.rate_per_sec must be positive")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	return nil
}

// Location returns the configured market timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SplitSymbols parses a comma or whitespace separated symbol list.
func SplitSymbols(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToUpper(strings.TrimSpace(f)))
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
