package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults applied when neither the config file nor the environment set a key.
const (
	DefaultAPIBaseURL    = "https://wallet.b.goit.study/"
	DefaultAPITimeout    = 30 * time.Second
	DefaultMarketBaseURL = "https://api.binance.com"
	DefaultMarketTTL     = time.Minute
	DefaultRatesURL      = "https://api.monobank.ua/bank/currency"
	DefaultRatesTTL      = 5 * time.Minute
	DefaultDatabasePath  = "$HOME/.local/share/wallet/wallet.db"
	DefaultLogFile       = "$HOME/.local/share/wallet/wallet.log"
	EnvPrefix            = "WALLET"
)

// Config is the resolved application configuration.
type Config struct {
	API      APIConfig
	Market   MarketConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// APIConfig configures the wallet REST service.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// MarketConfig configures the market data client.
type MarketConfig struct {
	BaseURL    string
	RatesURL   string
	Currencies []string
	CacheTTL   time.Duration
	RatesTTL   time.Duration
}

// DatabaseConfig configures local storage.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("api.timeout", DefaultAPITimeout)
	v.SetDefault("market.base_url", DefaultMarketBaseURL)
	v.SetDefault("market.cache_ttl", DefaultMarketTTL)
	v.SetDefault("market.rates_url", DefaultRatesURL)
	v.SetDefault("market.rates_ttl", DefaultRatesTTL)
	v.SetDefault("market.currencies", []string{"USD", "EUR"})
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", DefaultLogFile)
}

// LoadDotEnv reads KEY=value pairs from the given files into the process
// environment. Missing files are ignored; existing variables are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from v and validates it. Paths are expanded.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		API: APIConfig{
			BaseURL: v.GetString("api.base_url"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Market: MarketConfig{
			BaseURL:    v.GetString("market.base_url"),
			RatesURL:   v.GetString("market.rates_url"),
			Currencies: v.GetStringSlice("market.currencies"),
			CacheTTL:   v.GetDuration("market.cache_ttl"),
			RatesTTL:   v.GetDuration("market.rates_ttl"),
		},
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
			File:   ExpandPath(v.GetString("logging.file")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every required value is present and well formed.
func (c Config) Validate() error {
	if err := validateURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if err := validateURL("market.base_url", c.Market.BaseURL); err != nil {
		return err
	}
	if err := validateURL("market.rates_url", c.Market.RatesURL); err != nil {
		return err
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", common.ErrInvalidConfig)
	}
	if c.Market.CacheTTL < 0 {
		return fmt.Errorf("%w: market.cache_ttl must not be negative", common.ErrInvalidConfig)
	}
	if c.Market.RatesTTL < 0 {
		return fmt.Errorf("%w: market.rates_ttl must not be negative", common.ErrInvalidConfig)
	}
	if len(c.Market.Currencies) == 0 {
		return fmt.Errorf("%w: market.currencies", common.ErrMissingConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: invalid log format: %s", common.ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

func validateURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: %s", common.ErrMissingConfig, key)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an http(s) URL, got %q", common.ErrInvalidConfig, key, raw)
	}
	return nil
}
