package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/walletflow/internal/cli"
	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/spf13/cobra"
)

const passwordEnv = "WALLET_PASSWORD"

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage your wallet session",
		Long:  `Sign in, sign up, sign out and inspect the current session.`,
	}

	cmd.AddCommand(loginCmd())
	cmd.AddCommand(registerCmd())
	cmd.AddCommand(logoutCmd())
	cmd.AddCommand(statusCmd())

	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the wallet service",
		Long: `Sign in with your e-mail and password. The password is read from
--password, then $WALLET_PASSWORD, then standard input.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			creds, err := readCredentials(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), email, password, "")
			if err != nil {
				return err
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.session.Login(ctx, creds); err != nil {
				return err
			}

			user := a.session.User()
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Signed in as %s (%s)", user.Name, user.Email)))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account e-mail")
	cmd.Flags().StringVar(&password, "password", "", "account password")

	return cmd
}

func registerCmd() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a wallet account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			creds, err := readCredentials(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), email, password, name)
			if err != nil {
				return err
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.session.Register(ctx, creds); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Welcome, %s! Your account is ready.", a.session.User().Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account e-mail")
	cmd.Flags().StringVar(&password, "password", "", "account password (6 to 12 characters)")
	cmd.Flags().StringVar(&name, "name", "", "your first name")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			// Without a stored token there is nothing to revoke.
			if err := a.session.Refresh(ctx); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Not signed in"))
				return nil
			}
			if err := a.session.Logout(ctx); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Signed out locally; the service did not confirm: "+common.UserMessage(err)))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed out"))
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is signed in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newAuthedApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			user := a.session.User()
			content := fmt.Sprintf("%s\n%s\nBalance: %s",
				user.Name,
				cli.SubtleStyle.Render(user.Email),
				cli.FormatAmount(user.Balance),
			)
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(cli.WalletIcon+" Account", content))
			return nil
		},
	}
}

// readCredentials fills in missing credentials from the environment or by
// prompting on in. A password typed on a terminal is not echoed.
func readCredentials(ctx context.Context, in io.Reader, out io.Writer, email, password, name string) (model.Credentials, error) {
	reader := cli.NewPromptReader(in)

	var err error
	if strings.TrimSpace(email) == "" {
		fmt.Fprint(out, "E-mail: ")
		if email, err = reader.ReadLine(ctx); err != nil {
			return model.Credentials{}, fmt.Errorf("failed to read e-mail: %w", err)
		}
	}
	if password == "" {
		password = os.Getenv(passwordEnv)
	}
	if password == "" {
		fmt.Fprint(out, "Password: ")
		password, err = reader.ReadSecret(ctx)
		if reader.IsTerminal() {
			fmt.Fprintln(out)
		}
		if err != nil {
			return model.Credentials{}, fmt.Errorf("failed to read password: %w", err)
		}
	}

	return model.Credentials{
		Email:    strings.TrimSpace(email),
		Password: password,
		Name:     strings.TrimSpace(name),
	}, nil
}
