package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/report"
)

// reportFlags are shared by every report view.
type reportFlags struct {
	from        string
	to          string
	granularity string
	drill       string
}

func (f *reportFlags) filters(now time.Time) (model.ReportFilters, error) {
	start, err := parseDate(f.from)
	if err != nil {
		return model.ReportFilters{}, err
	}
	end, err := parseDate(f.to)
	if err != nil {
		return model.ReportFilters{}, err
	}
	g, err := model.ParseGranularity(f.granularity)
	if err != nil {
		return model.ReportFilters{}, err
	}

	now = now.UTC()
	if start.IsZero() {
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if end.IsZero() {
		end = now
	}
	if start.After(end) {
		end = start
	}
	return model.ReportFilters{StartDate: start, EndDate: end, Granularity: g}, nil
}

func reportCmd() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Income, spending and balances over a date range",
		Long: `Aggregate the ledger over a date range (default: this year to date).
Every aggregate has a drill-down key; pass it to --drill to list the
transactions behind it.`,
		Example: `  ledger report summary --from 2024-01-01 --to 2024-03-31
  ledger report periods --granularity weekly
  ledger report categories --drill category:Food`,
	}

	cmd.PersistentFlags().StringVar(&flags.from, "from", "", "first day (YYYY-MM-DD, default: January 1st)")
	cmd.PersistentFlags().StringVar(&flags.to, "to", "", "last day (YYYY-MM-DD, default: today)")
	cmd.PersistentFlags().StringVarP(&flags.granularity, "granularity", "g", string(model.GranularityMonthly), "daily, weekly, monthly or yearly")
	cmd.PersistentFlags().StringVar(&flags.drill, "drill", "", "list the transactions behind a drill-down key")

	views := []struct {
		name, short string
		render      func(r *report.Report, currency string) string
	}{
		{"summary", "Totals and top spending categories", renderSummary},
		{"periods", "Income and expense per period", renderPeriods},
		{"trend", "Spending per period", renderTrend},
		{"categories", "Spending per category", renderCategories},
		{"accounts", "Balances and activity per account", renderAccounts},
	}
	for _, v := range views {
		cmd.AddCommand(&cobra.Command{
			Use:   v.name,
			Short: v.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				f, err := flags.filters(time.Now())
				if err != nil {
					return err
				}

				a, err := openApp(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				r := a.engine.Report(f)
				if flags.drill != "" {
					txns, ok := r.DrillDown(flags.drill)
					if !ok {
						return fmt.Errorf("no aggregate with key %q in this report", flags.drill)
					}
					fmt.Println(renderTransactions(a.engine.Snapshot(), txns)) //nolint:forbidigo // User-facing output
					return nil
				}

				fmt.Println(cli.FormatTitle(fmt.Sprintf("%s to %s", //nolint:forbidigo // User-facing output
					r.Filters.StartDate.Format(dateLayout), r.Filters.EndDate.Format(dateLayout))))
				fmt.Println(v.render(r, a.engine.Currency())) //nolint:forbidigo // User-facing output
				return nil
			},
		})
	}

	return cmd
}

func renderSummary(r *report.Report, currency string) string {
	rows := [][]string{
		{"Income", cli.FormatAmount(r.Summary.TotalIncome, currency)},
		{"Expenses", cli.FormatAmount(r.Summary.TotalExpense.Neg(), currency)},
		{"Net", cli.FormatAmount(r.Summary.NetBalance, currency)},
	}
	for i, c := range r.Summary.TopCategories {
		rows = append(rows, []string{
			fmt.Sprintf("#%d %s", i+1, c.Category),
			model.FormatMoney(c.Total, currency) + "  " + cli.SubtleStyle.Render(report.CategoryKeyPrefix+c.Category),
		})
	}
	return cli.RenderTable([]string{"", ""}, rows)
}

func renderPeriods(r *report.Report, currency string) string {
	rows := make([][]string, 0, len(r.Periods))
	for _, p := range r.Periods {
		rows = append(rows, []string{
			p.Label,
			model.FormatMoney(p.Income, currency),
			model.FormatMoney(p.Expense, currency),
			cli.FormatAmount(p.Net(), currency),
			cli.SubtleStyle.Render(p.PeriodKey),
		})
	}
	return cli.RenderTable([]string{"PERIOD", "INCOME", "EXPENSE", "NET", "KEY"}, rows)
}

func renderTrend(r *report.Report, currency string) string {
	rows := make([][]string, 0, len(r.Trend))
	for _, t := range r.Trend {
		rows = append(rows, []string{
			t.Label,
			model.FormatMoney(t.Value, currency),
			cli.SubtleStyle.Render(report.TrendKeyPrefix + t.PeriodKey),
		})
	}
	return cli.RenderTable([]string{"PERIOD", "SPENT", "KEY"}, rows)
}

func renderCategories(r *report.Report, currency string) string {
	total := r.Summary.TotalExpense
	rows := make([][]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		rows = append(rows, []string{
			c.Category,
			model.FormatMoney(c.Total, currency),
			cli.FormatPercent(model.Percentage(c.Total, total)),
			cli.SubtleStyle.Render(report.CategoryKeyPrefix + c.Category),
		})
	}
	return cli.RenderTable([]string{"CATEGORY", "SPENT", "SHARE", "KEY"}, rows)
}

func renderAccounts(r *report.Report, _ string) string {
	rows := make([][]string, 0, len(r.Accounts))
	for _, a := range r.Accounts {
		rows = append(rows, []string{
			a.AccountName,
			cli.FormatAmount(a.Balance, a.Currency),
			fmt.Sprintf("%d", len(a.Transactions)),
			cli.SubtleStyle.Render(report.AccountKeyPrefix + a.AccountID),
		})
	}
	return cli.RenderTable([]string{"ACCOUNT", "BALANCE", "TRANSACTIONS", "KEY"}, rows)
}
