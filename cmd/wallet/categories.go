package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/walletflow/internal/cli"
	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show transaction categories",
	}

	cmd.AddCommand(listCategoriesCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List income and expense categories",
		Long: `List categories from the wallet service and refresh the local cache.
With --offline, or when the service is unreachable, the cache is shown instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if offline {
				a, err := newApp(ctx)
				if err != nil {
					return err
				}
				defer a.close()
				return printCachedCategories(cmd, a)
			}

			a, err := newAuthedApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.LoadCategories(ctx); err != nil {
				if !errors.Is(err, common.ErrTransport) {
					return err
				}
				fmt.Fprintln(out, cli.FormatWarning("Service unreachable, showing cached categories"))
				return printCachedCategories(cmd, a)
			}

			categories := a.store.Snapshot().Categories()
			if err := a.storage.SaveCategories(ctx, categories); err != nil {
				common.ComponentLogger("cli").Warn("Failed to cache categories", "error", err)
			}

			fmt.Fprintln(out, categoryTable(categories))
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "show the locally cached categories")

	return cmd
}

func printCachedCategories(cmd *cobra.Command, a *app) error {
	categories, fetchedAt, err := a.storage.GetCategories(cmd.Context())
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No cached categories. Run 'wallet categories list' while online."))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), categoryTable(categories))
	fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("Cached "+fetchedAt.Local().Format(time.DateTime)))
	return nil
}

func categoryTable(categories []model.Category) string {
	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []string{c.Name, strings.ToLower(string(c.Kind)), c.ID})
	}
	return cli.RenderTable([]string{"NAME", "TYPE", "ID"}, rows)
}
