package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/walletflow/internal/aggregate"
	"github.com/Veraticus/walletflow/internal/cli"
	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List and edit transactions",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(editTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var (
		ascending bool
		month     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newAuthedApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Load(ctx); err != nil {
				return err
			}

			now := time.Now()
			snap := a.store.Snapshot()
			txs := aggregate.Filter(snap.Transactions, now)
			if month != "" {
				year, m, err := parseMonth(month, now)
				if err != nil {
					return err
				}
				from, to := aggregate.MonthlyRange(year, m, now.Location())
				txs = inRange(txs, from, to)
			}
			txs = aggregate.SortByDate(txs, !ascending)

			if len(txs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No transactions"))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), transactionTable(txs, snap.Categories(), now.Location()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&ascending, "asc", false, "oldest first")
	cmd.Flags().StringVar(&month, "month", "", "only show one month (YYYY-MM)")

	return cmd
}

func addTransactionCmd() *cobra.Command {
	var flags txFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction",
		Example: `  wallet transactions add --type expense --amount 12.50 --category Products --comment "Groceries"
  wallet transactions add --type income --amount 2500 --date 2024-01-31`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newAuthedApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.LoadCategories(ctx); err != nil {
				return err
			}

			draft, err := flags.apply(model.TransactionDraft{Type: model.TypeExpense}, cmd.Flags(), a.store.Snapshot().ExpenseCategories, time.Now())
			if err != nil {
				return err
			}

			tx, err := a.store.AddTransaction(ctx, draft)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s %s (%s)", strings.ToLower(string(tx.Type)), tx.Amount.StringFixed(2), tx.ID)))
			return nil
		},
	}

	flags.register(cmd.Flags())

	return cmd
}

func editTransactionCmd() *cobra.Command {
	var flags txFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction",
		Long:  `Edit a transaction. Only the flags you pass are changed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			a, err := newAuthedApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Load(ctx); err != nil {
				return err
			}

			snap := a.store.Snapshot()
			existing, ok := findTransaction(snap.Transactions, id)
			if !ok {
				return common.NewUserError(fmt.Sprintf("Transaction %s not found.", id), common.ErrNotFound)
			}

			patch, err := flags.apply(model.DraftFrom(existing), cmd.Flags(), snap.ExpenseCategories, time.Now())
			if err != nil {
				return err
			}

			tx, err := a.store.UpdateTransaction(ctx, id, patch)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated %s: %s %s", tx.ID, strings.ToLower(string(tx.Type)), tx.Amount.StringFixed(2))))
			return nil
		},
	}

	flags.register(cmd.Flags())

	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a transaction",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newAuthedApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.DeleteTransaction(ctx, args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted "+args[0]))
			return nil
		},
	}
}

// txFlags are the transaction fields settable from the command line.
type txFlags struct {
	txType   string
	amount   string
	date     string
	category string
	comment  string
}

func (f *txFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.txType, "type", "expense", "income or expense")
	fs.StringVar(&f.amount, "amount", "", "amount, sign is ignored")
	fs.StringVar(&f.date, "date", "", "date as YYYY-MM-DD (default today)")
	fs.StringVar(&f.category, "category", "", "expense category name or ID")
	fs.StringVar(&f.comment, "comment", "", "comment, up to 30 characters")
}

// apply overlays the flags that were set onto base. Income transactions
// ignore --category; the store assigns the income category.
func (f *txFlags) apply(base model.TransactionDraft, fs *pflag.FlagSet, expense []model.Category, now time.Time) (model.TransactionDraft, error) {
	d := base

	if fs.Changed("type") {
		t, err := parseType(f.txType)
		if err != nil {
			return d, err
		}
		d.Type = t
	}
	if fs.Changed("amount") {
		d.Amount = f.amount
	}
	if fs.Changed("date") || d.TransactionDate.IsZero() {
		date, err := parseDate(f.date, now)
		if err != nil {
			return d, err
		}
		d.TransactionDate = date
	}
	if fs.Changed("comment") {
		d.Comment = f.comment
	}

	if d.Type != model.TypeExpense {
		d.CategoryID = ""
		return d, nil
	}
	if fs.Changed("category") || d.CategoryID == "" {
		c, err := resolveCategory(expense, model.TypeExpense, f.category)
		if err != nil {
			return d, err
		}
		d.CategoryID = c.ID
	}
	return d, nil
}

func findTransaction(txs []model.Transaction, id string) (model.Transaction, bool) {
	for _, tx := range txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return model.Transaction{}, false
}

func inRange(txs []model.Transaction, from, to time.Time) []model.Transaction {
	out := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.TransactionDate.Before(from) && tx.TransactionDate.Before(to) {
			out = append(out, tx)
		}
	}
	return out
}

func transactionTable(txs []model.Transaction, categories []model.Category, loc *time.Location) string {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		category := tx.CategoryID
		if c, ok := model.FindCategory(categories, tx.CategoryID); ok {
			category = c.Name
		}
		rows = append(rows, []string{
			tx.ID,
			tx.TransactionDate.In(loc).Format(model.DateLayout),
			strings.ToLower(string(tx.Type)),
			category,
			tx.Comment,
			cli.FormatAmount(tx.Amount),
		})
	}
	return cli.RenderTable([]string{"ID", "DATE", "TYPE", "CATEGORY", "COMMENT", "AMOUNT"}, rows)
}
