package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/report"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "budgets",
		Aliases: []string{"budget"},
		Short:   "Manage spending budgets",
		Example: `  ledger budgets add Food 400 --threshold 85
  ledger budgets list
  ledger budgets spent <budget-id> 0`,
	}

	cmd.AddCommand(listBudgetsCmd())
	cmd.AddCommand(addBudgetCmd())
	cmd.AddCommand(updateBudgetCmd())
	cmd.AddCommand(setBudgetSpentCmd())
	cmd.AddCommand(deleteBudgetCmd())

	return cmd
}

func listBudgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show budgets and how much of each is spent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			budgets := a.engine.Snapshot().Budgets()
			if len(budgets) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No budgets yet. Add one with: ledger budgets add")) //nolint:forbidigo // User-facing output
				return nil
			}

			var rows [][]string
			for _, p := range report.BudgetProgress(budgets) {
				rows = append(rows, []string{
					cli.SubtleStyle.Render(p.ID),
					p.Category,
					string(p.Period),
					cli.RenderProgressBar(p.ProgressPercentage, 20),
					fmt.Sprintf("%s / %s", model.FormatMoney(p.SpentAmount, p.Currency), model.FormatMoney(p.BudgetedAmount, p.Currency)),
					cli.FormatAmount(p.RemainingAmount, p.Currency),
				})
			}
			fmt.Println(cli.RenderTable([]string{"ID", "CATEGORY", "PERIOD", "PROGRESS", "SPENT", "REMAINING"}, rows)) //nolint:forbidigo // User-facing output
			fmt.Printf("\nBudgeted %s, spent %s\n",                                                                    //nolint:forbidigo // User-facing output
				model.FormatMoney(report.TotalBudgeted(budgets), a.engine.Currency()),
				model.FormatMoney(report.TotalSpent(budgets), a.engine.Currency()))
			return nil
		},
	}
}

// budgetFlags are shared by add and update.
type budgetFlags struct {
	period    string
	currency  string
	threshold string
}

func (f *budgetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.period, "period", "p", "", "monthly or yearly (default: monthly)")
	cmd.Flags().StringVarP(&f.currency, "currency", "c", "", "currency code")
	cmd.Flags().StringVarP(&f.threshold, "threshold", "t", "", "alert threshold percentage (default: alerts.default_threshold)")
}

func (f *budgetFlags) apply(b *model.Budget) error {
	if f.period != "" {
		b.Period = model.BudgetPeriod(f.period)
	}
	if f.currency != "" {
		b.Currency = f.currency
	}
	if f.threshold != "" {
		t, err := parseAmount(f.threshold)
		if err != nil {
			return err
		}
		b.AlertThreshold = decimal.NewNullDecimal(t)
	}
	return nil
}

func addBudgetCmd() *cobra.Command {
	var flags budgetFlags

	cmd := &cobra.Command{
		Use:   "add <category> <amount>",
		Short: "Budget an expense category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			b := model.Budget{Category: args[0], BudgetedAmount: amount}
			if err := flags.apply(&b); err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.engine.AddBudget(cmd.Context(), b)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Budgeted %s %s for %s (%s)", //nolint:forbidigo // User-facing output
				model.FormatMoney(created.BudgetedAmount, created.Currency), created.Period, created.Category, created.ID)))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func updateBudgetCmd() *cobra.Command {
	var flags budgetFlags
	var amount, category string

	cmd := &cobra.Command{
		Use:   "update <budget-id>",
		Short: "Change a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			b, ok := a.engine.Snapshot().Budget(args[0])
			if !ok {
				return fmt.Errorf("budget %s not found", args[0])
			}
			if amount != "" {
				if b.BudgetedAmount, err = parseAmount(amount); err != nil {
					return err
				}
			}
			if category != "" {
				b.Category = category
			}
			if err := flags.apply(&b); err != nil {
				return err
			}

			if _, err := a.engine.UpdateBudget(cmd.Context(), b); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Updated budget " + b.ID)) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&amount, "amount", "", "new budgeted amount")
	cmd.Flags().StringVar(&category, "category", "", "new category")

	return cmd
}

func setBudgetSpentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spent <budget-id> <amount>",
		Short: "Overwrite the spent amount, e.g. to start a new period",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.engine.SetBudgetSpent(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s budget spent is now %s\n", cli.SuccessIcon, b.Category, model.FormatMoney(b.SpentAmount, b.Currency)) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func deleteBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <budget-id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.DeleteBudget(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Deleted budget " + args[0])) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
