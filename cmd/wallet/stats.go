package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/walletflow/internal/aggregate"
	"github.com/Veraticus/walletflow/internal/cli"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show expenses by category for a month",
		Example: `  wallet stats
  wallet stats --month 2024-01`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			now := time.Now()
			year, m, err := parseMonth(month, now)
			if err != nil {
				return err
			}

			a, err := newAuthedApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Load(ctx); err != nil {
				return err
			}

			snap := a.store.Snapshot()
			from, to := aggregate.MonthlyRange(year, m, now.Location())
			summary := aggregate.SummarizeRange(snap.Transactions, snap.Categories(), from, to)

			fmt.Fprintln(cmd.OutOrStdout(), renderStats(from, summary))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")

	return cmd
}

func renderStats(month time.Time, summary aggregate.Summary) string {
	var b strings.Builder
	b.WriteString(cli.FormatTitle(cli.ChartIcon + " " + month.Format("January 2006")))
	b.WriteString("\n")

	slices := aggregate.ChartDataset(summary.Expenses())
	if len(slices) == 0 {
		b.WriteString(cli.SubtleStyle.Render("No expenses this month."))
		b.WriteString("\n")
	}

	rows := make([][]string, 0, len(slices))
	for _, s := range slices {
		color := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color))
		bar := strings.Repeat("█", int(s.Percentage.Div(decimal.NewFromInt(5)).IntPart()))
		rows = append(rows, []string{
			color.Render("■") + " " + s.Label,
			s.Value.StringFixed(2),
			s.Percentage.StringFixed(1) + "%",
			color.Render(bar),
		})
	}
	if len(rows) > 0 {
		b.WriteString(cli.RenderTable([]string{"CATEGORY", "SUM", "SHARE", ""}, rows))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%-20s %s\n", "Expenses:", cli.FormatAmount(summary.ExpenseTotal))
	fmt.Fprintf(&b, "%-20s %s\n", "Income:", cli.FormatAmount(summary.IncomeTotal))
	fmt.Fprintf(&b, "%-20s %s", "Balance for month:", cli.FormatAmount(summary.BalanceAfter))
	return b.String()
}
