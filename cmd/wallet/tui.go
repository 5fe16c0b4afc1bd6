package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/tui"
	"github.com/spf13/cobra"
)

func tuiCmd() *cobra.Command {
	var symbols []string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive wallet",
		Long: `Open the full-screen wallet. A stored session is restored on start;
otherwise the sign-in form is shown. Logs go to logging.file while the
interface owns the terminal.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Component loggers bind the default handler when created.
			logFile, err := redirectLogs(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer func() {
				_ = logFile.Close()
			}()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			mkt, err := newMarketClient(a.cfg)
			if err != nil {
				return err
			}

			opts := []tui.Option{
				tui.WithRestore(true),
				tui.WithRequestTimeout(a.cfg.API.Timeout),
				tui.WithCurrencies(a.cfg.Market.Currencies...),
			}
			if len(symbols) > 0 {
				opts = append(opts, tui.WithSymbols(symbols...))
			}

			return tui.Run(ctx, a.session, a.store, mkt, opts...)
		},
	}

	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "currency pairs for the currency tab")

	return cmd
}

// redirectLogs points the default logger at path.
func redirectLogs(path, level, format string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	lvl, err := common.ParseLevel(level)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := common.SetupLogger(f, lvl, format); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}
