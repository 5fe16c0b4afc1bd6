package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/walletflow/internal/cli"
	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/market"
	"github.com/spf13/cobra"
)

func marketCmd() *cobra.Command {
	var (
		symbols    []string
		currencies []string
		interval   string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "market",
		Short: "Show exchange rates and recent currency pair performance",
		Long: `Show the bank's buy and sell rates for each currency, then fetch recent
klines for each pair and show the change since the first close in the window.
Market data does not require signing in.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newMarketClient(cfg)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("currencies") {
				currencies = cfg.Market.Currencies
			}

			rates, ratesErr := client.Rates(ctx, currencies)
			if ratesErr == nil {
				fmt.Fprintln(out, rateTable(rates))
			} else {
				fmt.Fprintln(out, cli.FormatWarning(common.UserMessage(ratesErr)))
			}

			upper := make([]string, 0, len(symbols))
			for _, s := range symbols {
				upper = append(upper, strings.ToUpper(strings.TrimSpace(s)))
			}

			series, err := client.MultiKlines(ctx, upper, interval, limit)
			if err != nil {
				if ratesErr != nil {
					return err
				}
				fmt.Fprintln(out, cli.FormatWarning(common.UserMessage(err)))
				return nil
			}

			rows := make([][]string, 0, len(series))
			for i, p := range market.NormalizeAll(series) {
				closeValue := "-"
				if k := series[i].Klines; len(k) > 0 {
					closeValue = k[len(k)-1].Close.String()
				}
				rows = append(rows, []string{p.Symbol, closeValue, cli.FormatAmount(p.Last()) + "%"})
			}

			fmt.Fprintln(out, cli.RenderTable([]string{"PAIR", "LAST CLOSE", "CHANGE"}, rows))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&currencies, "currencies", market.DefaultCurrencies, "currencies to quote in "+market.BaseCurrency)
	cmd.Flags().StringSliceVar(&symbols, "symbols", market.DefaultSymbols, "currency pairs")
	cmd.Flags().StringVar(&interval, "interval", market.DefaultInterval, "kline interval (1m, 1h, 1d, ...)")
	cmd.Flags().IntVar(&limit, "limit", market.DefaultLimit, "number of klines per pair")

	return cmd
}

func rateTable(rates []market.Rate) string {
	if len(rates) == 0 {
		return cli.FormatWarning("No exchange rates available")
	}
	rows := make([][]string, 0, len(rates))
	for _, r := range rates {
		rows = append(rows, []string{
			r.Currency + "/" + market.BaseCurrency,
			r.Buy.StringFixed(2),
			r.Sell.StringFixed(2),
		})
	}
	return cli.RenderTable([]string{"CURRENCY", "BUY", "SELL"}, rows)
}
