package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// FixedTime is the default timestamp of built fixtures.
var FixedTime = time.Date(2024, time.June, 12, 9, 30, 0, 0, time.UTC)

// Money parses a decimal literal and panics on malformed input.
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// AccountBuilder builds accounts for tests.
type AccountBuilder struct {
	a model.Account
}

// NewAccount starts a USD checking account named after its ID.
func NewAccount(id string) *AccountBuilder {
	return &AccountBuilder{a: model.Account{
		ID:        id,
		Name:      id,
		Type:      model.AccountTypeChecking,
		Currency:  model.DefaultCurrency,
		CreatedAt: FixedTime,
		UpdatedAt: FixedTime,
	}}
}

// Named sets the account name.
func (b *AccountBuilder) Named(name string) *AccountBuilder {
	b.a.Name = name
	return b
}

// OfType sets the account type.
func (b *AccountBuilder) OfType(t model.AccountType) *AccountBuilder {
	b.a.Type = t
	return b
}

// WithBalance sets the balance.
func (b *AccountBuilder) WithBalance(amount string) *AccountBuilder {
	b.a.Balance = Money(amount)
	return b
}

// Build returns the account.
func (b *AccountBuilder) Build() model.Account {
	return b.a
}

// TransactionBuilder builds transactions for tests.
type TransactionBuilder struct {
	t model.Transaction
}

// NewExpense starts an expense; amount may be given with either sign.
func NewExpense(id, accountID, category, amount string) *TransactionBuilder {
	return newTransaction(id, accountID, category, amount, model.TransactionTypeExpense)
}

// NewIncome starts an income transaction.
func NewIncome(id, accountID, category, amount string) *TransactionBuilder {
	return newTransaction(id, accountID, category, amount, model.TransactionTypeIncome)
}

func newTransaction(id, accountID, category, amount string, typ model.TransactionType) *TransactionBuilder {
	t := model.Transaction{
		ID:        id,
		AccountID: accountID,
		Category:  category,
		Amount:    Money(amount),
		Type:      typ,
		Date:      FixedTime,
	}
	t.NormalizeSign()
	return &TransactionBuilder{t: t}
}

// On sets the transaction date.
func (b *TransactionBuilder) On(date time.Time) *TransactionBuilder {
	b.t.Date = date
	return b
}

// Described sets the description.
func (b *TransactionBuilder) Described(desc string) *TransactionBuilder {
	b.t.Description = desc
	return b
}

// Build returns the transaction.
func (b *TransactionBuilder) Build() model.Transaction {
	return b.t
}

// NewBudget builds a monthly USD budget.
func NewBudget(id, category, amount string) model.Budget {
	return model.Budget{
		ID:             id,
		Category:       category,
		BudgetedAmount: Money(amount),
		Period:         model.BudgetPeriodMonthly,
		Currency:       model.DefaultCurrency,
		CreatedAt:      FixedTime,
		UpdatedAt:      FixedTime,
	}
}
