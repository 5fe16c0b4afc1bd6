package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/shopspring/decimal"
)

// RatesUserMessage is shown whenever exchange rates cannot be loaded.
const RatesUserMessage = "Failed to load exchange rates. Please try again later."

const (
	// DefaultRatesURL is the public Monobank rate table.
	DefaultRatesURL = "https://api.monobank.ua/bank/currency"
	// BaseCurrency is the currency every rate is quoted in.
	BaseCurrency = "UAH"

	// The rate endpoint allows one request per five minutes.
	defaultRatesTTL = 5 * time.Minute
	ratesCacheKey   = "table"
)

// DefaultCurrencies are the currencies shown in the rate table.
var DefaultCurrencies = []string{"USD", "EUR"}

// currencyCodes maps ISO 4217 alphabetic codes to the numeric codes the
// rate table uses.
var currencyCodes = map[string]int{
	"UAH": 980,
	"USD": 840,
	"EUR": 978,
	"GBP": 826,
	"PLN": 985,
	"CHF": 756,
	"CZK": 203,
	"CAD": 124,
	"JPY": 392,
}

// Rate is the bank's buy and sell price of one currency in BaseCurrency.
type Rate struct {
	Date     time.Time
	Currency string
	Buy      decimal.Decimal
	Sell     decimal.Decimal
}

type rateRow struct {
	RateBuy       decimal.Decimal `json:"rateBuy"`
	RateSell      decimal.Decimal `json:"rateSell"`
	RateCross     decimal.Decimal `json:"rateCross"`
	CurrencyCodeA int             `json:"currencyCodeA"`
	CurrencyCodeB int             `json:"currencyCodeB"`
	Date          int64           `json:"date"`
}

// Rates returns the rate of each currency against BaseCurrency, in the order
// asked for. Currencies missing from the bank's table are left out.
func (c *Client) Rates(ctx context.Context, currencies []string) ([]Rate, error) {
	if len(currencies) == 0 {
		return nil, common.NewValidationError("currencies", "At least one currency is required.")
	}
	wanted := make([]string, 0, len(currencies))
	for _, cur := range currencies {
		cur = strings.ToUpper(strings.TrimSpace(cur))
		if _, ok := currencyCodes[cur]; !ok || cur == BaseCurrency {
			return nil, common.NewValidationError("currencies", fmt.Sprintf("Unsupported currency %q.", cur))
		}
		wanted = append(wanted, cur)
	}

	table, ok := c.rates.get(ratesCacheKey)
	if ok {
		c.logger.Debug("Rate cache hit")
	} else {
		var err error
		if table, err = c.fetchRates(ctx); err != nil {
			return nil, err
		}
		c.rates.set(ratesCacheKey, table)
	}

	byCurrency := make(map[string]Rate, len(table))
	for _, r := range table {
		byCurrency[r.Currency] = r
	}
	out := make([]Rate, 0, len(wanted))
	for _, cur := range wanted {
		if r, ok := byCurrency[cur]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Client) fetchRates(ctx context.Context) ([]Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ratesURL.String(), nil)
	if err != nil {
		return nil, ratesError(common.KindRequest, 0, "", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ratesError(common.KindTransport, 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr struct {
			Description string `json:"errorDescription"`
		}
		_ = json.Unmarshal(body, &apiErr)
		kind := common.KindClient
		if resp.StatusCode >= http.StatusInternalServerError {
			kind = common.KindServer
		}
		return nil, ratesError(kind, resp.StatusCode, apiErr.Description, nil)
	}

	var rows []rateRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, ratesError(common.KindServer, resp.StatusCode, "malformed rate table", err)
	}

	rates := decodeRates(rows)
	c.logger.Debug("Fetched exchange rates", "count", len(rates))
	return rates, nil
}

// decodeRates keeps rows quoted in BaseCurrency for currencies we know.
// Rows with only a cross rate use it for both buy and sell.
func decodeRates(rows []rateRow) []Rate {
	names := make(map[int]string, len(currencyCodes))
	for name, code := range currencyCodes {
		names[code] = name
	}

	base := currencyCodes[BaseCurrency]
	rates := make([]Rate, 0, len(rows))
	for _, row := range rows {
		name, ok := names[row.CurrencyCodeA]
		if !ok || row.CurrencyCodeB != base {
			continue
		}
		buy, sell := row.RateBuy, row.RateSell
		if buy.IsZero() && sell.IsZero() {
			buy, sell = row.RateCross, row.RateCross
		}
		rates = append(rates, Rate{
			Currency: name,
			Buy:      buy,
			Sell:     sell,
			Date:     time.Unix(row.Date, 0).UTC(),
		})
	}
	return rates
}

func ratesError(kind common.ErrorKind, status int, message string, err error) error {
	return &common.APIError{
		Kind:        kind,
		Status:      status,
		Message:     message,
		UserMessage: RatesUserMessage,
		Err:         err,
	}
}
