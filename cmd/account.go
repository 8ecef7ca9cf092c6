package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	cmd.AddCommand(
		newAccountListCmd(app),
		newAccountAddCmd(app),
		newAccountRemoveCmd(app),
	)

	return cmd
}

func newAccountListCmd(app *app) *cobra.Command {
	var maskEmails bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.load(cmd); err != nil {
				return err
			}

			accounts, err := app.accounts.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}

			for _, account := range accounts {
				email := account.Email
				if maskEmails {
					email = account.MaskedEmail()
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", email, credentialLabel(account), proxyLabel(account.Proxy))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&maskEmails, "mask-emails", false, "Hide the local part of account emails")

	return cmd
}

func newAccountAddCmd(app *app) *cobra.Command {
	var (
		email         string
		password      string
		passwordStdin bool
		passwordRef   string
		proxy         domain.Proxy
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace an account and store its password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.load(cmd); err != nil {
				return err
			}

			if passwordStdin {
				if password != "" {
					return errors.New("--password and --password-stdin are mutually exclusive")
				}
				read, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = read
			}
			if password != "" && passwordRef != "" {
				return errors.New("use either a password or --password-ref, not both")
			}

			account := domain.Account{Email: email, Password: password, PasswordRef: passwordRef}
			if proxy.URL != "" {
				account.Proxy = &proxy
			}

			if err := app.accounts.AddAccount(cmd.Context(), account); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "account %s saved\n", strings.TrimSpace(email))
			return err
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password, stored in the secret store")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().StringVar(&passwordRef, "password-ref", "", "Existing secret reference (pass://... or file://...)")
	cmd.Flags().StringVar(&proxy.URL, "proxy-url", "", "Proxy URL")
	cmd.Flags().IntVar(&proxy.Port, "proxy-port", 0, "Proxy port")
	cmd.Flags().StringVar(&proxy.Username, "proxy-username", "", "Proxy username")
	cmd.Flags().StringVar(&proxy.Password, "proxy-password", "", "Proxy password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newAccountRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <email>",
		Short: "Remove an account and its stored password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(cmd); err != nil {
				return err
			}

			if err := app.accounts.RemoveAccount(cmd.Context(), args[0]); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "account %s removed\n", args[0])
			return err
		},
	}
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("read password from stdin: empty password")
	}
	return password, nil
}

func credentialLabel(account domain.Account) string {
	switch {
	case account.PasswordRef != "":
		return account.PasswordRef
	case account.Password != "":
		return "inline"
	default:
		return "none"
	}
}

func proxyLabel(proxy *domain.Proxy) string {
	if address := proxy.Address(); address != "" {
		return address
	}
	return "direct"
}
