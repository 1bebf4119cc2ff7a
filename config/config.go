package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full process configuration. Environment variables cover
// process-level settings; the yaml file covers domain data (fee schedules,
// symbol presets, scanner tuning).
type Config struct {
	AppPort             string
	LogLevel            string
	EnableBinanceStream bool

	Scanner   ScannerConfig
	Scheduler SchedulerConfig
	Ledger    LedgerConfig
	Fees      map[string]FeeConfig
	Presets   map[string][]string
}

// ScannerConfig tunes the calculators and batch scanners. Defaults reflect
// conservative pacing under public-API rate limits.
type ScannerConfig struct {
	FillTolerance    float64       `mapstructure:"fill_tolerance"`     // fraction of target that must fill
	MinProfitPercent float64       `mapstructure:"min_profit_percent"` // profitability threshold
	BookDepth        int           `mapstructure:"book_depth"`
	BookBatchSize    int           `mapstructure:"book_batch_size"`
	BookBatchDelay   time.Duration `mapstructure:"book_batch_delay"`
	TickerBatchSize  int           `mapstructure:"ticker_batch_size"`
	TickerBatchDelay time.Duration `mapstructure:"ticker_batch_delay"`
	TopN             int           `mapstructure:"top_n"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
}

// SchedulerConfig controls the background scan loop.
type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Preset   string        `mapstructure:"preset"`
	Interval time.Duration `mapstructure:"interval"`
}

type LedgerConfig struct {
	MaxHistory int `mapstructure:"max_history"`
}

// FeeConfig holds one exchange's fee schedule as fractional rates.
type FeeConfig struct {
	Maker float64 `mapstructure:"maker"`
	Taker float64 `mapstructure:"taker"`
}

// DefaultFee applies when an exchange has no configured schedule.
var DefaultFee = FeeConfig{Maker: 0.001, Taker: 0.001}

// Load reads .env, environment variables, and the optional config.yaml found
// at CONFIG_PATH (default "."). A missing yaml file is fine; coded defaults
// cover everything.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment directly")
	}

	v := viper.New()
	v.AddConfigPath(getEnv("CONFIG_PATH", "."))
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		AppPort:             getEnv("APP_PORT", "3000"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		EnableBinanceStream: getEnv("BINANCE_STREAM", "") == "true",
		Fees:                defaultFees(),
		Presets:             defaultPresets(),
	}

	if err := v.UnmarshalKey("scanner", &cfg.Scanner); err != nil {
		return nil, err
	}
	if err := v.UnmarshalKey("scheduler", &cfg.Scheduler); err != nil {
		return nil, err
	}
	if err := v.UnmarshalKey("ledger", &cfg.Ledger); err != nil {
		return nil, err
	}
	if v.IsSet("fees") {
		overrides := make(map[string]FeeConfig)
		if err := v.UnmarshalKey("fees", &overrides); err != nil {
			return nil, err
		}
		for id, fee := range overrides {
			cfg.Fees[id] = fee
		}
	}

	if v.IsSet("presets") {
		presets := make(map[string][]string)
		if err := v.UnmarshalKey("presets", &presets); err != nil {
			return nil, err
		}
		for name, symbols := range presets {
			cfg.Presets[name] = symbols
		}
		cfg.Presets["all"] = allSymbols(cfg.Presets)
	}

	return cfg, nil
}

// Fee returns the configured schedule for an exchange id, or the default.
func (c *Config) Fee(exchangeID string) FeeConfig {
	if fee, ok := c.Fees[exchangeID]; ok {
		return fee
	}
	return DefaultFee
}

// Preset resolves a preset name to its symbol list; unknown names fall back
// to "all".
func (c *Config) Preset(name string) []string {
	if symbols, ok := c.Presets[name]; ok {
		return symbols
	}
	return c.Presets["all"]
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scanner.fill_tolerance", 0.9)
	v.SetDefault("scanner.min_profit_percent", 0.01)
	v.SetDefault("scanner.book_depth", 50)
	v.SetDefault("scanner.book_batch_size", 3)
	v.SetDefault("scanner.book_batch_delay", 500*time.Millisecond)
	v.SetDefault("scanner.ticker_batch_size", 5)
	v.SetDefault("scanner.ticker_batch_delay", 300*time.Millisecond)
	v.SetDefault("scanner.top_n", 10)
	v.SetDefault("scanner.request_timeout", 30*time.Second)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.preset", "all")
	v.SetDefault("scheduler.interval", time.Minute)
	v.SetDefault("ledger.max_history", 1000)
}

// Published spot fee schedules as of mid-2025; override per deployment in
// config.yaml when an account tier changes them.
func defaultFees() map[string]FeeConfig {
	return map[string]FeeConfig{
		"binance": {Maker: 0.001, Taker: 0.001},
		"bybit":   {Maker: 0.001, Taker: 0.001},
		"mexc":    {Maker: 0, Taker: 0.0005},
		"kraken":  {Maker: 0.0016, Taker: 0.0026},
	}
}

// Curated pairs known for wider cross-exchange spreads.
func defaultPresets() map[string][]string {
	presets := map[string][]string{
		"memecoins": {
			"PEPE/USDT", "BONK/USDT", "WIF/USDT", "FLOKI/USDT", "SHIB/USDT", "DOGE/USDT",
		},
		"midcap": {
			"SEI/USDT", "SUI/USDT", "TIA/USDT", "INJ/USDT", "JUP/USDT",
			"STRK/USDT", "PYTH/USDT", "JTO/USDT", "ONDO/USDT", "RENDER/USDT",
		},
		"largecap": {
			"BTC/USDT", "ETH/USDT", "SOL/USDT", "XRP/USDT",
			"ADA/USDT", "AVAX/USDT", "LINK/USDT", "DOT/USDT",
		},
	}
	presets["all"] = allSymbols(presets)
	return presets
}

func allSymbols(presets map[string][]string) []string {
	seen := make(map[string]bool)
	var all []string
	for _, name := range []string{"memecoins", "midcap", "largecap"} {
		for _, s := range presets[name] {
			if !seen[s] {
				seen[s] = true
				all = append(all, s)
			}
		}
	}
	return all
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
