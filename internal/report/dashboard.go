package report

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// TotalBalance sums every account balance. Credit balances are negative, so
// debt reduces the total.
func TotalBalance(accounts []model.Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// AccountsByType groups accounts by their type.
func AccountsByType(accounts []model.Account) map[model.AccountType][]model.Account {
	out := make(map[model.AccountType][]model.Account)
	for _, a := range accounts {
		out[a.Type] = append(out[a.Type], a)
	}
	return out
}

func byDateDesc(a, b model.Transaction) int {
	return b.Date.Compare(a.Date)
}

// TransactionsByAccount returns the account's transactions, newest first.
func TransactionsByAccount(txns []model.Transaction, accountID string) []model.Transaction {
	var out []model.Transaction
	for _, t := range txns {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, byDateDesc)
	return out
}

// RecentTransactions returns the n newest transactions.
func RecentTransactions(txns []model.Transaction, n int) []model.Transaction {
	out := slices.Clone(txns)
	slices.SortStableFunc(out, byDateDesc)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func sameMonth(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func monthlyTotal(txns []model.Transaction, now time.Time, typ model.TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if t.Type == typ && sameMonth(t.Date, now) {
			total = total.Add(t.Amount.Abs())
		}
	}
	return total
}

// MonthlyIncome totals income dated in now's calendar month.
func MonthlyIncome(txns []model.Transaction, now time.Time) decimal.Decimal {
	return monthlyTotal(txns, now, model.TransactionTypeIncome)
}

// MonthlyExpenses totals expenses dated in now's calendar month.
func MonthlyExpenses(txns []model.Transaction, now time.Time) decimal.Decimal {
	return monthlyTotal(txns, now, model.TransactionTypeExpense)
}

// SpendingByCategory totals this month's expenses per category name. It is
// the spending input of budget alert evaluation.
func SpendingByCategory(txns []model.Transaction, now time.Time) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range txns {
		if t.Type == model.TransactionTypeExpense && sameMonth(t.Date, now) {
			out[t.Category] = out[t.Category].Add(t.Amount.Abs())
		}
	}
	return out
}

// BudgetProgress derives progress figures for every budget.
func BudgetProgress(budgets []model.Budget) []model.BudgetProgress {
	out := make([]model.BudgetProgress, 0, len(budgets))
	for i := range budgets {
		out = append(out, budgets[i].Progress())
	}
	return out
}

// TotalBudgeted sums the budgeted amounts.
func TotalBudgeted(budgets []model.Budget) decimal.Decimal {
	total := decimal.Zero
	for _, b := range budgets {
		total = total.Add(b.BudgetedAmount)
	}
	return total
}

// TotalSpent sums the spent amounts.
func TotalSpent(budgets []model.Budget) decimal.Decimal {
	total := decimal.Zero
	for _, b := range budgets {
		total = total.Add(b.SpentAmount)
	}
	return total
}
