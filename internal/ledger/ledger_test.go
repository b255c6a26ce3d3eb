package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

var testTime = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func account(id, name string, t model.AccountType, balance string) model.Account {
	return model.Account{
		ID:        id,
		Name:      name,
		Type:      t,
		Currency:  model.DefaultCurrency,
		Balance:   d(balance),
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

func expense(id, accountID, category, amount string) model.Transaction {
	return model.Transaction{
		ID:          id,
		AccountID:   accountID,
		Category:    category,
		Description: "test " + id,
		Date:        testTime,
		Type:        model.TransactionTypeExpense,
		Amount:      d(amount).Abs().Neg(),
	}
}

func income(id, accountID, category, amount string) model.Transaction {
	return model.Transaction{
		ID:          id,
		AccountID:   accountID,
		Category:    category,
		Description: "test " + id,
		Date:        testTime,
		Type:        model.TransactionTypeIncome,
		Amount:      d(amount).Abs(),
	}
}

func category(id, name string, t model.CategoryType) model.Category {
	return model.Category{ID: id, Name: name, Type: t, Icon: "tag", Color: "#000000"}
}

func budget(id, categoryName, budgeted, spent string) model.Budget {
	return model.Budget{
		ID:             id,
		Category:       categoryName,
		Currency:       model.DefaultCurrency,
		Period:         model.BudgetPeriodMonthly,
		BudgetedAmount: d(budgeted),
		SpentAmount:    d(spent),
		CreatedAt:      testTime,
		UpdatedAt:      testTime,
	}
}
