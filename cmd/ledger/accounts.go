package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/report"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage accounts",
		Example: `  ledger accounts add "Checking" --type checking --balance 1500
  ledger accounts list
  ledger accounts adjust Checking -- -20.50`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(updateAccountCmd())
	cmd.AddCommand(deleteAccountCmd())
	cmd.AddCommand(adjustAccountCmd())

	return cmd
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.engine.Snapshot()
			accounts := s.Accounts()
			if len(accounts) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No accounts yet. Add one with: ledger accounts add")) //nolint:forbidigo // User-facing output
				return nil
			}

			byType := report.AccountsByType(accounts)
			var rows [][]string
			for _, typ := range model.AccountTypes {
				for _, acct := range byType[typ] {
					rows = append(rows, []string{
						cli.SubtleStyle.Render(acct.ID),
						acct.Name,
						string(acct.Type),
						cli.FormatAmount(acct.Balance, acct.Currency),
					})
				}
			}
			fmt.Println(cli.RenderTable([]string{"ID", "NAME", "TYPE", "BALANCE"}, rows))                     //nolint:forbidigo // User-facing output
			fmt.Printf("\nTotal: %s\n", cli.FormatAmount(report.TotalBalance(accounts), a.engine.Currency())) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func accountTypeFlagHelp() string {
	names := make([]string, 0, len(model.AccountTypes))
	for _, t := range model.AccountTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func addAccountCmd() *cobra.Command {
	var typ, balance, currency string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(balance)
			if err != nil {
				return err
			}
			if !slices.Contains(model.AccountTypes, model.AccountType(typ)) {
				return fmt.Errorf("unknown account type %q: must be one of %s", typ, accountTypeFlagHelp())
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := a.engine.AddAccount(cmd.Context(), model.Account{
				Name:     args[0],
				Type:     model.AccountType(typ),
				Currency: currency,
				Balance:  amount,
			})
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added %s account %s (%s)", acct.Type, acct.Name, acct.ID))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", string(model.AccountTypeChecking), "account type: "+accountTypeFlagHelp())
	cmd.Flags().StringVarP(&balance, "balance", "b", "0", "opening balance")
	cmd.Flags().StringVarP(&currency, "currency", "c", "", "ISO currency code (default: ledger.default_currency)")

	return cmd
}

func updateAccountCmd() *cobra.Command {
	var name, typ, currency string

	cmd := &cobra.Command{
		Use:   "update <account>",
		Short: "Rename an account or change its type or currency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := findAccount(a.engine.Snapshot(), args[0])
			if err != nil {
				return err
			}
			if name != "" {
				acct.Name = name
			}
			if typ != "" {
				acct.Type = model.AccountType(typ)
			}
			if currency != "" {
				acct.Currency = currency
			}

			updated, err := a.engine.UpdateAccount(cmd.Context(), acct)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Updated account " + updated.Name)) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "new name")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "new type: "+accountTypeFlagHelp())
	cmd.Flags().StringVarP(&currency, "currency", "c", "", "new currency code")

	return cmd
}

func deleteAccountCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <account>",
		Short: "Delete an account and all of its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.engine.Snapshot()
			acct, err := findAccount(s, args[0])
			if err != nil {
				return err
			}

			if !force {
				n := len(report.TransactionsByAccount(s.Transactions(), acct.ID))
				ok, err := cli.Confirm(cmd.Context(), cli.NewNonBlockingReader(cmd.InOrStdin()), cmd.OutOrStdout(),
					fmt.Sprintf("Delete %s and its %d transactions?", acct.Name, n))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println(cli.FormatInfo("Nothing deleted")) //nolint:forbidigo // User-facing output
					return nil
				}
			}

			if err := a.engine.DeleteAccount(cmd.Context(), acct.ID); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Deleted account " + acct.Name)) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}

func adjustAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adjust <account> <delta>",
		Short: "Add a signed amount to an account balance without recording a transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := findAccount(a.engine.Snapshot(), args[0])
			if err != nil {
				return err
			}
			updated, err := a.engine.AdjustBalance(cmd.Context(), acct.ID, delta)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s balance is now %s\n", cli.SuccessIcon, updated.Name, cli.FormatAmount(updated.Balance, updated.Currency)) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
