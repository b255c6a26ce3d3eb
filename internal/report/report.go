// Package report derives summaries from a ledger snapshot: time-bucketed
// income and expense, spending trends, category and account breakdowns, and
// the dashboard figures.
//
// Every aggregate keeps the exact transactions it summed, so drilling down
// into a figure never re-applies filters and always shows what was counted.
package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/ledger"
	"github.com/Veraticus/ledgerflow/internal/model"
)

// DefaultTopCategories is how many categories a summary lists.
const DefaultTopCategories = 3

// Drill-down key prefixes.
const (
	TrendKeyPrefix    = "trend:"
	CategoryKeyPrefix = "category:"
	AccountKeyPrefix  = "account:"
)

// PeriodDatum is the income and expense of one time bucket.
type PeriodDatum struct {
	StartDate    time.Time
	EndDate      time.Time
	PeriodKey    string
	Label        string
	Income       decimal.Decimal
	Expense      decimal.Decimal
	Transactions []model.Transaction
}

// Net is income minus expense.
func (p PeriodDatum) Net() decimal.Decimal {
	return p.Income.Sub(p.Expense)
}

// TrendDatum is one point of the spending trend.
type TrendDatum struct {
	PeriodKey    string
	Label        string
	Value        decimal.Decimal
	Transactions []model.Transaction
}

// CategoryDatum is the total expense of one category.
type CategoryDatum struct {
	Category     string
	Total        decimal.Decimal
	Transactions []model.Transaction
}

// AccountDatum is an account's current balance and its transactions in range.
type AccountDatum struct {
	AccountID    string
	AccountName  string
	Currency     string
	Balance      decimal.Decimal
	Transactions []model.Transaction
}

// Summary totals a date range.
type Summary struct {
	TotalIncome   decimal.Decimal
	TotalExpense  decimal.Decimal
	NetBalance    decimal.Decimal
	TopCategories []CategoryDatum
}

// TransactionsByDateRange returns the transactions dated within
// [start of StartDate, end of EndDate]. Zero dates leave that side open.
func TransactionsByDateRange(txns []model.Transaction, f model.ReportFilters) []model.Transaction {
	if f.StartDate.IsZero() && f.EndDate.IsZero() {
		return slices.Clone(txns)
	}
	var start, end time.Time
	if !f.StartDate.IsZero() {
		start = startOfDay(f.StartDate)
	}
	if !f.EndDate.IsZero() {
		end = endOfDay(f.EndDate)
	}

	out := make([]model.Transaction, 0, len(txns))
	for _, t := range txns {
		if !start.IsZero() && t.Date.Before(start) {
			continue
		}
		if !end.IsZero() && t.Date.After(end) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// IncomeExpenseByPeriod groups txns into buckets of granularity g, sorted by
// bucket start. Amounts are summed by magnitude.
func IncomeExpenseByPeriod(txns []model.Transaction, g model.Granularity) []PeriodDatum {
	if !g.Valid() {
		return nil
	}
	buckets := make(map[string]*PeriodDatum)
	for _, t := range txns {
		start := PeriodStart(t.Date, g)
		key := PeriodKey(start, g)
		b, ok := buckets[key]
		if !ok {
			end := PeriodEnd(start, g)
			b = &PeriodDatum{
				PeriodKey: key,
				Label:     PeriodLabel(start, end, g),
				StartDate: start,
				EndDate:   end,
			}
			buckets[key] = b
		}
		if t.Type == model.TransactionTypeIncome {
			b.Income = b.Income.Add(t.Amount.Abs())
		} else {
			b.Expense = b.Expense.Add(t.Amount.Abs())
		}
		b.Transactions = append(b.Transactions, t)
	}

	out := make([]PeriodDatum, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b PeriodDatum) int { return a.StartDate.Compare(b.StartDate) })
	return out
}

// SpendingTrend reduces periods to their expense totals.
func SpendingTrend(periods []PeriodDatum) []TrendDatum {
	out := make([]TrendDatum, 0, len(periods))
	for _, p := range periods {
		out = append(out, TrendDatum{
			PeriodKey: p.PeriodKey,
			Label:     p.Label,
			Value:     p.Expense,
			Transactions: slices.DeleteFunc(slices.Clone(p.Transactions), func(t model.Transaction) bool {
				return t.Type != model.TransactionTypeExpense
			}),
		})
	}
	return out
}

// CategoryDistribution totals expenses per category, largest first. An empty
// category name is reported as Uncategorized.
func CategoryDistribution(txns []model.Transaction) []CategoryDatum {
	index := make(map[string]int)
	var out []CategoryDatum
	for _, t := range txns {
		if t.Type != model.TransactionTypeExpense {
			continue
		}
		name := t.Category
		if name == "" {
			name = model.UncategorizedCategory
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CategoryDatum{Category: name})
		}
		out[i].Total = out[i].Total.Add(t.Amount.Abs())
		out[i].Transactions = append(out[i].Transactions, t)
	}
	slices.SortStableFunc(out, func(a, b CategoryDatum) int { return b.Total.Cmp(a.Total) })
	return out
}

// AccountReports pairs each account with its transactions in txns. Accounts
// with a zero balance and no transactions are left out.
func AccountReports(accounts []model.Account, txns []model.Transaction) []AccountDatum {
	var out []AccountDatum
	for _, a := range accounts {
		var related []model.Transaction
		for _, t := range txns {
			if t.AccountID == a.ID {
				related = append(related, t)
			}
		}
		if a.Balance.IsZero() && len(related) == 0 {
			continue
		}
		out = append(out, AccountDatum{
			AccountID:    a.ID,
			AccountName:  a.Name,
			Currency:     a.Currency,
			Balance:      a.Balance,
			Transactions: related,
		})
	}
	return out
}

// Summarize totals the periods and keeps the first topN categories.
func Summarize(periods []PeriodDatum, categories []CategoryDatum, topN int) Summary {
	var s Summary
	for _, p := range periods {
		s.TotalIncome = s.TotalIncome.Add(p.Income)
		s.TotalExpense = s.TotalExpense.Add(p.Expense)
	}
	s.NetBalance = s.TotalIncome.Sub(s.TotalExpense)
	s.TopCategories = slices.Clone(categories[:min(max(topN, 0), len(categories))])
	return s
}

// Report bundles every view of one snapshot and filter combination.
type Report struct {
	drill      map[string][]model.Transaction
	Filters    model.ReportFilters
	Periods    []PeriodDatum
	Trend      []TrendDatum
	Categories []CategoryDatum
	Accounts   []AccountDatum
	Summary    Summary
}

// Build computes all report views of s for f.
func Build(s *ledger.Snapshot, f model.ReportFilters, topN int) *Report {
	f = f.Normalized()
	inRange := TransactionsByDateRange(s.Transactions(), f)

	r := &Report{Filters: f}
	r.Periods = IncomeExpenseByPeriod(inRange, f.Granularity)
	r.Trend = SpendingTrend(r.Periods)
	r.Categories = CategoryDistribution(inRange)
	r.Accounts = AccountReports(s.Accounts(), inRange)
	r.Summary = Summarize(r.Periods, r.Categories, topN)

	r.drill = make(map[string][]model.Transaction, len(r.Periods)*2+len(r.Categories)+len(r.Accounts))
	for _, p := range r.Periods {
		r.drill[p.PeriodKey] = p.Transactions
	}
	for _, t := range r.Trend {
		r.drill[TrendKeyPrefix+t.PeriodKey] = t.Transactions
	}
	for _, c := range r.Categories {
		r.drill[CategoryKeyPrefix+c.Category] = c.Transactions
	}
	for _, a := range r.Accounts {
		r.drill[AccountKeyPrefix+a.AccountID] = a.Transactions
	}
	return r
}

// DrillDown returns the transactions behind the aggregate with the given key:
// a period key, "trend:<period key>", "category:<name>" or "account:<id>".
func (r *Report) DrillDown(key string) ([]model.Transaction, bool) {
	txns, ok := r.drill[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(txns), true
}

// Keys lists every drill-down key of the report in a stable order.
func (r *Report) Keys() []string {
	keys := make([]string, 0, len(r.drill))
	for k := range r.drill {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, cmp.Compare[string])
	return keys
}
