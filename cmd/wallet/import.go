package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/walletflow/internal/cli"
	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/importer"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	var (
		category string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX bank statements",
		Long: `Import statement lines from OFX or QFX files exported from your bank.

Debits become expenses in --category; credits become income. Lines dated in
the future or with a zero amount are skipped. Lines repeated across files
(same FITID) are imported once.`,
		Example: `  wallet import ~/Downloads/checking_jan.qfx --category Products
  wallet import ~/Downloads/*.ofx --category "Other expenses" --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			entries, err := parseStatements(cmd, files)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, cli.FormatWarning("No statement lines found"))
				return nil
			}

			handler := cli.NewInterruptHandler(out, "Import interrupted. Lines added so far are kept.")
			ctx, stop := handler.HandleInterrupts(cmd.Context())
			defer stop()

			a, err := newAuthedApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.LoadCategories(ctx); err != nil {
				return err
			}
			expense, err := resolveCategory(a.store.Snapshot().ExpenseCategories, model.TypeExpense, category)
			if err != nil {
				return err
			}

			now := time.Now()
			if dryRun {
				drafts, _, skipped := importer.Drafts(entries, expense.ID, now)
				fmt.Fprintln(out, draftTable(drafts, expense))
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Dry run: %d to import, %d skipped", len(drafts), skipped)))
				return nil
			}

			result, err := importer.NewRunner(a.store, cmd.ErrOrStderr()).Run(ctx, entries, expense.ID, now)
			if err != nil && !handler.WasInterrupted() {
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d, skipped %d, failed %d", result.Imported, result.Skipped, len(result.Failures))))
			for _, f := range result.Failures {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%s %s %s: %s",
					f.Entry.Posted.Format(model.DateLayout), f.Entry.Amount.StringFixed(2), f.Entry.Name, common.UserMessage(f.Err))))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "expense category for debits (name or ID)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "preview without adding transactions")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

// expandFiles resolves glob patterns, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("no files match %s", pattern)
			}
			matches = []string{pattern}
		}
		files = append(files, matches...)
	}
	return files, nil
}

// parseStatements reads every file and drops lines already seen by FITID.
func parseStatements(cmd *cobra.Command, files []string) ([]importer.Entry, error) {
	parser := importer.NewParser()
	seen := make(map[string]bool)
	var entries []importer.Entry

	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		parsed, err := parser.Parse(cmd.Context(), f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}

		for _, e := range parsed {
			key := e.AccountID + "/" + e.FitID
			if e.FitID != "" && seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func draftTable(drafts []model.TransactionDraft, expense model.Category) string {
	rows := make([][]string, 0, len(drafts))
	for _, d := range drafts {
		category := "(income)"
		if d.Type == model.TypeExpense {
			category = expense.Name
		}
		rows = append(rows, []string{
			d.TransactionDate.Format(model.DateLayout),
			string(d.Type),
			category,
			d.Comment,
			d.Amount,
		})
	}
	return cli.RenderTable([]string{"DATE", "TYPE", "CATEGORY", "COMMENT", "AMOUNT"}, rows)
}
