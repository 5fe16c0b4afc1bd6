// Package market fetches crypto price series from the Binance public API and
// fiat exchange rates from the Monobank public API.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// UserMessage is shown whenever market data cannot be loaded.
const UserMessage = "Failed to load crypto data. Please try again later."

const (
	// DefaultBaseURL is the public Binance REST endpoint.
	DefaultBaseURL = "https://api.binance.com"
	// DefaultInterval and DefaultLimit give one point per hour over a day.
	DefaultInterval = "1h"
	DefaultLimit    = 24

	maxConcurrentFetches = 4
	maxErrorBody         = 16 << 10
)

// DefaultSymbols are the pairs shown in the currency view.
var DefaultSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "ADAUSDT"}

// Kline is one candle reduced to what the currency view needs.
type Kline struct {
	CloseTime time.Time
	Close     decimal.Decimal
}

// Series is the kline history of one symbol.
type Series struct {
	Symbol string
	Klines []Kline
}

// Config holds market client configuration.
type Config struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	RatesURL   string
	CacheTTL   time.Duration
	RatesTTL   time.Duration
	CacheSize  int
}

// Client fetches klines and exchange rates. Klines are cached for CacheTTL
// and rates for RatesTTL.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	ratesURL   *url.URL
	klines     *ttlCache[[]Kline]
	rates      *ttlCache[[]Rate]
	logger     *slog.Logger
}

// NewClient creates a market client.
func NewClient(cfg Config) (*Client, error) {
	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("%w: market base URL %q", common.ErrInvalidConfig, raw)
	}

	rawRates := cfg.RatesURL
	if rawRates == "" {
		rawRates = DefaultRatesURL
	}
	ratesURL, err := url.Parse(rawRates)
	if err != nil || (ratesURL.Scheme != "http" && ratesURL.Scheme != "https") {
		return nil, fmt.Errorf("%w: rates URL %q", common.ErrInvalidConfig, rawRates)
	}

	ratesTTL := cfg.RatesTTL
	if ratesTTL <= 0 {
		ratesTTL = defaultRatesTTL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		ratesURL:   ratesURL,
		klines:     newCache(cfg.CacheTTL, cfg.CacheSize, cloneSlice[Kline]),
		rates:      newCache(ratesTTL, 1, cloneSlice[Rate]),
		logger:     common.ComponentLogger("market"),
	}, nil
}

// Klines returns the last limit candles of symbol at interval.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, common.NewValidationError("symbol", "Symbol is required.")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if interval == "" {
		interval = DefaultInterval
	}

	key := fmt.Sprintf("%s|%s|%d", symbol, interval, limit)
	if cached, ok := c.klines.get(key); ok {
		c.logger.Debug("Kline cache hit", "symbol", symbol)
		return cached, nil
	}

	klines, err := c.fetch(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}
	c.klines.set(key, klines)
	return klines, nil
}

// MultiKlines fetches several symbols concurrently. The result keeps the
// order of symbols; any failure fails the whole call.
func (c *Client) MultiKlines(ctx context.Context, symbols []string, interval string, limit int) ([]Series, error) {
	results := make([]Series, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, symbol := range symbols {
		g.Go(func() error {
			klines, err := c.Klines(gctx, symbol, interval, limit)
			if err != nil {
				return fmt.Errorf("%s: %w", symbol, err)
			}
			results[i] = Series{Symbol: strings.ToUpper(symbol), Klines: klines}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ClearCache drops every cached series and rate table.
func (c *Client) ClearCache() {
	c.klines.clear()
	c.rates.clear()
}

func (c *Client) fetch(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: "/api/v3/klines"})
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, c.wrap(common.KindRequest, 0, "", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.wrap(common.KindTransport, 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr struct {
			Msg string `json:"msg"`
		}
		_ = json.Unmarshal(body, &apiErr)
		kind := common.KindClient
		if resp.StatusCode >= http.StatusInternalServerError {
			kind = common.KindServer
		}
		return nil, c.wrap(kind, resp.StatusCode, apiErr.Msg, nil)
	}

	var rows [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, c.wrap(common.KindServer, resp.StatusCode, "malformed klines", err)
	}

	klines, err := decodeKlines(rows)
	if err != nil {
		return nil, c.wrap(common.KindServer, resp.StatusCode, "malformed klines", err)
	}

	c.logger.Debug("Fetched klines", "symbol", symbol, "interval", interval, "count", len(klines))
	return klines, nil
}

func (c *Client) wrap(kind common.ErrorKind, status int, message string, err error) error {
	return &common.APIError{
		Kind:        kind,
		Status:      status,
		Message:     message,
		UserMessage: UserMessage,
		Err:         err,
	}
}

// decodeKlines reads Binance's positional kline arrays:
// [openTime, open, high, low, close, volume, closeTime, ...].
func decodeKlines(rows [][]json.RawMessage) ([]Kline, error) {
	klines := make([]Kline, 0, len(rows))
	for i, row := range rows {
		if len(row) < 7 {
			return nil, fmt.Errorf("kline %d: expected at least 7 fields, got %d", i, len(row))
		}

		var closeStr string
		if err := json.Unmarshal(row[4], &closeStr); err != nil {
			return nil, fmt.Errorf("kline %d close: %w", i, err)
		}
		closePrice, err := decimal.NewFromString(closeStr)
		if err != nil {
			return nil, fmt.Errorf("kline %d close: %w", i, err)
		}

		var closeMillis int64
		if err := json.Unmarshal(row[6], &closeMillis); err != nil {
			return nil, fmt.Errorf("kline %d close time: %w", i, err)
		}

		klines = append(klines, Kline{
			CloseTime: time.UnixMilli(closeMillis).UTC(),
			Close:     closePrice,
		})
	}
	return klines, nil
}
