package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/ledger"
	"github.com/Veraticus/ledgerflow/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 12, 0, 0, 0, time.UTC)
}

func txn(id, accountID string, typ model.TransactionType, category, amount string, date time.Time) model.Transaction {
	t := model.Transaction{
		ID:        id,
		AccountID: accountID,
		Category:  category,
		Type:      typ,
		Amount:    d(amount),
		Date:      date,
	}
	t.NormalizeSign()
	return t
}

func sampleSnapshot() *ledger.Snapshot {
	return ledger.NewSnapshot(
		[]model.Account{
			{ID: "chk", Name: "Checking", Type: model.AccountTypeChecking, Currency: "USD", Balance: d("1200")},
			{ID: "sav", Name: "Savings", Type: model.AccountTypeSavings, Currency: "USD", Balance: d("5000")},
			{ID: "old", Name: "Closed", Type: model.AccountTypeChecking, Currency: "USD", Balance: d("0")},
			{ID: "cc", Name: "Card", Type: model.AccountTypeCredit, Currency: "USD", Balance: d("-300")},
		},
		[]model.Transaction{
			txn("t1", "chk", model.TransactionTypeIncome, "Salary", "3000", day(2024, 1, 1)),
			txn("t2", "chk", model.TransactionTypeExpense, "Food", "45.50", day(2024, 1, 3)),
			txn("t3", "cc", model.TransactionTypeExpense, "Shopping", "120", day(2024, 1, 8)),
			txn("t4", "chk", model.TransactionTypeExpense, "Food", "30", day(2024, 1, 14)),
			txn("t5", "chk", model.TransactionTypeExpense, "", "10", day(2024, 2, 2)),
			txn("t6", "chk", model.TransactionTypeIncome, "Interest", "5.25", day(2024, 2, 29)),
			txn("t7", "chk", model.TransactionTypeExpense, "Food", "99", day(2023, 12, 31)),
		},
		nil, nil,
	)
}

func TestPeriodStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		g    model.Granularity
		want time.Time
	}{
		{"daily", day(2024, 3, 15), model.GranularityDaily, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"weekly from friday", day(2024, 3, 15), model.GranularityWeekly, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)},
		{"weekly from sunday", day(2024, 3, 17), model.GranularityWeekly, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)},
		{"weekly from monday", day(2024, 3, 11), model.GranularityWeekly, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)},
		{"monthly", day(2024, 3, 15), model.GranularityMonthly, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"yearly", day(2024, 3, 15), model.GranularityYearly, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PeriodStart(tt.in, tt.g))
		})
	}
}

func TestPeriodEndAndLabel(t *testing.T) {
	start := PeriodStart(day(2024, 2, 10), model.GranularityMonthly)
	end := PeriodEnd(start, model.GranularityMonthly)
	assert.Equal(t, 29, end.Day(), "leap February")
	assert.Equal(t, "Feb 2024", PeriodLabel(start, end, model.GranularityMonthly))

	wStart := PeriodStart(day(2024, 3, 15), model.GranularityWeekly)
	wEnd := PeriodEnd(wStart, model.GranularityWeekly)
	assert.Equal(t, "Mar 11 - Mar 17", PeriodLabel(wStart, wEnd, model.GranularityWeekly))

	yStart := PeriodStart(day(2024, 3, 15), model.GranularityYearly)
	assert.Equal(t, "2024", PeriodLabel(yStart, PeriodEnd(yStart, model.GranularityYearly), model.GranularityYearly))
	assert.Equal(t, "yearly-1704067200000", PeriodKey(yStart, model.GranularityYearly))
}

func TestTransactionsByDateRange_Inclusive(t *testing.T) {
	txns := sampleSnapshot().Transactions()
	got := TransactionsByDateRange(txns, model.ReportFilters{
		StartDate: time.Date(2024, 1, 3, 23, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
	})

	ids := make([]string, 0, len(got))
	for _, tx := range got {
		ids = append(ids, tx.ID)
	}
	assert.ElementsMatch(t, []string{"t2", "t3", "t4"}, ids)
}

func TestBuild_RoundTrip(t *testing.T) {
	s := sampleSnapshot()
	filters := model.ReportFilters{
		StartDate:   day(2024, 1, 1),
		EndDate:     day(2024, 2, 29),
		Granularity: model.GranularityWeekly,
	}

	r := Build(s, filters, 3)

	income, expense := decimal.Zero, decimal.Zero
	for _, p := range r.Periods {
		income = income.Add(p.Income)
		expense = expense.Add(p.Expense)
	}
	assert.True(t, income.Equal(r.Summary.TotalIncome))
	assert.True(t, expense.Equal(r.Summary.TotalExpense))
	assert.True(t, r.Summary.TotalIncome.Equal(d("3005.25")))
	assert.True(t, r.Summary.TotalExpense.Equal(d("205.50")))
	assert.True(t, r.Summary.NetBalance.Equal(d("2799.75")))

	for i := 1; i < len(r.Periods); i++ {
		assert.True(t, r.Periods[i-1].StartDate.Before(r.Periods[i].StartDate), "periods sorted by start")
	}
}

func TestBuild_DrillDownMatchesAggregates(t *testing.T) {
	r := Build(sampleSnapshot(), model.ReportFilters{
		StartDate:   day(2024, 1, 1),
		EndDate:     day(2024, 2, 29),
		Granularity: model.GranularityMonthly,
	}, 3)

	for _, p := range r.Periods {
		txns, ok := r.DrillDown(p.PeriodKey)
		require.True(t, ok, p.PeriodKey)
		income, expense := decimal.Zero, decimal.Zero
		for _, tx := range txns {
			if tx.Type == model.TransactionTypeIncome {
				income = income.Add(tx.Amount.Abs())
			} else {
				expense = expense.Add(tx.Amount.Abs())
			}
		}
		assert.True(t, income.Equal(p.Income), "%s income", p.Label)
		assert.True(t, expense.Equal(p.Expense), "%s expense", p.Label)
	}

	for _, c := range r.Categories {
		txns, ok := r.DrillDown(CategoryKeyPrefix + c.Category)
		require.True(t, ok)
		total := decimal.Zero
		for _, tx := range txns {
			total = total.Add(tx.Amount.Abs())
		}
		assert.True(t, total.Equal(c.Total), c.Category)
	}

	food, ok := r.DrillDown("category:Food")
	require.True(t, ok)
	assert.Len(t, food, 2, "December expense is outside the range")

	_, ok = r.DrillDown("category:Travel")
	assert.False(t, ok)
}

func TestCategoryDistribution(t *testing.T) {
	txns := TransactionsByDateRange(sampleSnapshot().Transactions(), model.ReportFilters{
		StartDate: day(2024, 1, 1),
		EndDate:   day(2024, 2, 29),
	})
	got := CategoryDistribution(txns)

	require.Len(t, got, 3)
	assert.Equal(t, "Shopping", got[0].Category)
	assert.Equal(t, "Food", got[1].Category)
	assert.True(t, got[1].Total.Equal(d("75.50")))
	assert.Equal(t, model.UncategorizedCategory, got[2].Category)
}

func TestAccountReports_SkipsIdleAccounts(t *testing.T) {
	s := sampleSnapshot()
	txns := TransactionsByDateRange(s.Transactions(), model.ReportFilters{
		StartDate: day(2024, 1, 1),
		EndDate:   day(2024, 1, 31),
	})
	got := AccountReports(s.Accounts(), txns)

	ids := make([]string, 0, len(got))
	for _, a := range got {
		ids = append(ids, a.AccountID)
	}
	assert.Equal(t, []string{"chk", "sav", "cc"}, ids)
	assert.Empty(t, got[1].Transactions)
}

func TestBuild_EmptyRange(t *testing.T) {
	r := Build(sampleSnapshot(), model.ReportFilters{
		StartDate:   day(2030, 1, 1),
		EndDate:     day(2030, 12, 31),
		Granularity: model.GranularityDaily,
	}, 3)

	assert.Empty(t, r.Periods)
	assert.Empty(t, r.Trend)
	assert.Empty(t, r.Categories)
	assert.True(t, r.Summary.TotalIncome.IsZero())
	assert.True(t, r.Summary.TotalExpense.IsZero())
	assert.Empty(t, r.Summary.TopCategories)
}

func TestSpendingTrend(t *testing.T) {
	periods := IncomeExpenseByPeriod(sampleSnapshot().Transactions(), model.GranularityMonthly)
	trend := SpendingTrend(periods)

	require.Len(t, trend, len(periods))
	for i, p := range trend {
		assert.True(t, p.Value.Equal(periods[i].Expense))
		for _, tx := range p.Transactions {
			assert.Equal(t, model.TransactionTypeExpense, tx.Type)
		}
	}
}

func TestSummarize_TopN(t *testing.T) {
	cats := []CategoryDatum{{Category: "a"}, {Category: "b"}, {Category: "c"}, {Category: "d"}}
	assert.Len(t, Summarize(nil, cats, 3).TopCategories, 3)
	assert.Len(t, Summarize(nil, cats[:2], 3).TopCategories, 2)
}

func TestReporter_Memoizes(t *testing.T) {
	reporter := NewReporter(2, 3)
	s := sampleSnapshot()
	f := model.ReportFilters{StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 31), Granularity: model.GranularityWeekly}

	first := reporter.Report(s, f)
	second := reporter.Report(s, f)
	assert.Same(t, first, second)

	other := ledger.ApplyDeleteTransaction(s, "t2")
	third := reporter.Report(other, f)
	assert.NotSame(t, first, third)

	hits, misses := reporter.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, misses)

	reporter.Report(s, model.ReportFilters{StartDate: day(2024, 2, 1), EndDate: day(2024, 2, 29), Granularity: model.GranularityDaily})
	assert.Equal(t, 2, reporter.Size(), "oldest entry evicted")
}
