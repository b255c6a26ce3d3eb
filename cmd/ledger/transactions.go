package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/report"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Record and edit transactions",
		Example: `  ledger tx add Checking 42.10 --category Food --description "Groceries"
  ledger tx add Checking 2500 --income --category Salary
  ledger tx list --account Checking --limit 20`,
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(updateTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var account, from, to string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := parseDate(from)
			if err != nil {
				return err
			}
			end, err := parseDate(to)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.engine.Snapshot()
			txns := s.Transactions()
			if account != "" {
				acct, err := findAccount(s, account)
				if err != nil {
					return err
				}
				txns = report.TransactionsByAccount(txns, acct.ID)
			}
			if !start.IsZero() || !end.IsZero() {
				txns = report.TransactionsByDateRange(txns, model.ReportFilters{StartDate: start, EndDate: end})
			}
			txns = report.RecentTransactions(txns, limit)

			if len(txns) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No transactions found.")) //nolint:forbidigo // User-facing output
				return nil
			}
			fmt.Println(renderTransactions(s, txns)) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "only this account")
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of transactions")

	return cmd
}

// transactionFlags are shared by add and update.
type transactionFlags struct {
	category    string
	description string
	memo        string
	date        string
	income      bool
}

func (f *transactionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "category name (default: Uncategorized)")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "description")
	cmd.Flags().StringVarP(&f.memo, "memo", "m", "", "memo")
	cmd.Flags().StringVar(&f.date, "date", "", "date (YYYY-MM-DD, default: today)")
	cmd.Flags().BoolVar(&f.income, "income", false, "record income instead of an expense")
}

func (f *transactionFlags) transactionType() model.TransactionType {
	if f.income {
		return model.TransactionTypeIncome
	}
	return model.TransactionTypeExpense
}

func addTransactionCmd() *cobra.Command {
	var flags transactionFlags

	cmd := &cobra.Command{
		Use:   "add <account> <amount>",
		Short: "Record an expense or income",
		Long: `Record an expense (default) or income. The amount's sign is taken from the
type, so "42.10" and "-42.10" record the same expense.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			date, err := parseDate(flags.date)
			if err != nil {
				return err
			}

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
			typ := flags.transactionType()
			category := flags.category
			if c, ok := s.CategoryByName(category, model.CategoryType(typ)); ok {
				category = c.Name
			}

			t, err := a.engine.AddTransaction(cmd.Context(), model.Transaction{
				AccountID:   acct.ID,
				Amount:      amount,
				Type:        typ,
				Category:    category,
				Description: flags.description,
				Memo:        flags.memo,
				Date:        date,
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s Recorded %s %s in %s (%s)\n", //nolint:forbidigo // User-facing output
				cli.SuccessIcon, t.Type, cli.FormatAmount(t.Amount, acct.Currency), t.Category, t.ID)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func updateTransactionCmd() *cobra.Command {
	var flags transactionFlags
	var account, amount string

	cmd := &cobra.Command{
		Use:   "update <transaction-id>",
		Short: "Edit a transaction; balances and budgets follow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.engine.Snapshot()
			t, ok := s.Transaction(args[0])
			if !ok {
				return fmt.Errorf("transaction %s not found", args[0])
			}

			if account != "" {
				acct, err := findAccount(s, account)
				if err != nil {
					return err
				}
				t.AccountID = acct.ID
			}
			if amount != "" {
				if t.Amount, err = parseAmount(amount); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("income") {
				t.Type = flags.transactionType()
			}
			if flags.category != "" {
				t.Category = flags.category
				if c, ok := s.CategoryByName(t.Category, model.CategoryType(t.Type)); ok {
					t.Category = c.Name
				}
			}
			if flags.description != "" {
				t.Description = flags.description
			}
			if flags.memo != "" {
				t.Memo = flags.memo
			}
			if flags.date != "" {
				if t.Date, err = parseDate(flags.date); err != nil {
					return err
				}
			}

			updated, err := a.engine.UpdateTransaction(cmd.Context(), t)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Updated transaction " + updated.ID)) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&account, "account", "a", "", "move to this account")
	cmd.Flags().StringVar(&amount, "amount", "", "new amount")

	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <transaction-id>",
		Short: "Delete a transaction; deleting a transfer leg removes the whole transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.DeleteTransaction(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Deleted transaction " + args[0])) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
