package tui

import (
	"time"

	"github.com/Veraticus/walletflow/internal/market"
	"github.com/Veraticus/walletflow/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Now            func() time.Time
	Theme          themes.Theme
	Symbols        []string
	Currencies     []string
	Interval       string
	RequestTimeout time.Duration
	Limit          int
	Width          int
	Height         int
	Restore        bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Now:            time.Now,
		Theme:          themes.Default,
		Symbols:        market.DefaultSymbols,
		Currencies:     market.DefaultCurrencies,
		Interval:       market.DefaultInterval,
		Limit:          market.DefaultLimit,
		RequestTimeout: 30 * time.Second,
		Width:          80,
		Height:         24,
	}
}

// WithTheme sets the color theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithClock overrides the clock used for dates and month navigation.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// WithSymbols sets the market symbols shown on the currency view.
func WithSymbols(symbols ...string) Option {
	return func(c *Config) {
		c.Symbols = symbols
	}
}

// WithCurrencies sets the currencies in the exchange rate table.
func WithCurrencies(currencies ...string) Option {
	return func(c *Config) {
		c.Currencies = currencies
	}
}

// WithRequestTimeout bounds each remote call started from the TUI.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithRestore makes Init verify a persisted session before showing a view.
func WithRestore(restore bool) Option {
	return func(c *Config) {
		c.Restore = restore
	}
}
