package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/service"
)

var testDate = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testAccount(id, name string, balance string) *model.Account {
	return &model.Account{
		ID:       id,
		Name:     name,
		Type:     model.AccountTypeChecking,
		Currency: model.DefaultCurrency,
		Balance:  d(balance),
	}
}

func testTransaction(id, accountID, category, amount string, txnType model.TransactionType, date time.Time) model.Transaction {
	return model.Transaction{
		ID:        id,
		AccountID: accountID,
		Category:  category,
		Amount:    d(amount),
		Type:      txnType,
		Date:      date,
	}
}

func TestMigrate(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// A second run is a no-op.
	require.NoError(t, s.Migrate(ctx))

	version, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestAccounts(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAccount(ctx, testAccount("a1", "Checking", "100.50")))
	require.NoError(t, s.CreateAccount(ctx, testAccount("a2", "Savings", "2000")))

	accounts, err := s.GetAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Checking", accounts[0].Name)
	assert.True(t, d("100.50").Equal(accounts[0].Balance))
	assert.False(t, accounts[0].CreatedAt.IsZero())

	require.NoError(t, s.UpdateAccountBalance(ctx, "a1", d("75.25")))
	got, err := s.GetAccountByID(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, d("75.25").Equal(got.Balance))

	got.Name = "Everyday"
	require.NoError(t, s.UpdateAccount(ctx, got))
	got, err = s.GetAccountByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Everyday", got.Name)

	exists, err := s.AccountNameExists(ctx, "savings", "")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.AccountNameExists(ctx, "savings", "a2")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.GetAccountByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.UpdateAccountBalance(ctx, "missing", d("1")), common.ErrNotFound)

	err = s.CreateAccount(ctx, testAccount("a1", "Again", "0"))
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	err = s.CreateAccount(ctx, &model.Account{ID: "bad", Name: "Bad", Type: "wallet", Currency: "USD"})
	assert.ErrorIs(t, err, model.ErrInvalidAccount)
}

func TestDeleteAccountCascadesTransactions(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAccount(ctx, testAccount("a1", "Checking", "0")))
	txn := testTransaction("t1", "a1", "Food", "-12.00", model.TransactionTypeExpense, testDate)
	require.NoError(t, s.CreateTransaction(ctx, &txn))

	require.NoError(t, s.DeleteAccount(ctx, "a1"))

	txns, err := s.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txns)
	assert.ErrorIs(t, s.DeleteAccount(ctx, "a1"), common.ErrNotFound)
}

func TestTransactions(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAccount(ctx, testAccount("a1", "Checking", "0")))
	require.NoError(t, s.CreateAccount(ctx, testAccount("a2", "Savings", "0")))

	txns := []model.Transaction{
		testTransaction("t1", "a1", "Salary", "3000", model.TransactionTypeIncome, testDate.AddDate(0, 0, -10)),
		testTransaction("t2", "a1", "Food", "-45.10", model.TransactionTypeExpense, testDate.AddDate(0, 0, -2)),
		testTransaction("t3", "a2", "Food", "-8.90", model.TransactionTypeExpense, testDate),
	}
	n, err := s.SaveTransactions(ctx, txns)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Overlapping imports only add what is new.
	more := append(txns[:1:1], testTransaction("t4", "a2", "Interest", "1.25", model.TransactionTypeIncome, testDate))
	n, err = s.SaveTransactions(ctx, more)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := s.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "t1", all[3].ID, "oldest last")

	tests := []struct {
		name   string
		filter service.TransactionFilter
		want   []string
	}{
		{
			name:   "by account",
			filter: service.TransactionFilter{AccountID: "a2"},
			want:   []string{"t3", "t4"},
		},
		{
			name:   "by category",
			filter: service.TransactionFilter{Category: "Food"},
			want:   []string{"t2", "t3"},
		},
		{
			name: "by date range",
			filter: func() service.TransactionFilter {
				start, end := testDate.AddDate(0, 0, -3), testDate.AddDate(0, 0, -1)
				return service.TransactionFilter{StartDate: &start, EndDate: &end}
			}(),
			want: []string{"t2"},
		},
		{
			name:   "limit",
			filter: service.TransactionFilter{Limit: 1, Offset: 3},
			want:   []string{"t1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetTransactions(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, txn := range got {
				ids = append(ids, txn.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}

	got, err := s.GetTransactionByID(ctx, "t2")
	require.NoError(t, err)
	assert.True(t, d("-45.10").Equal(got.Amount))
	assert.Equal(t, model.TransactionTypeExpense, got.Type)
	assert.True(t, testDate.AddDate(0, 0, -2).Equal(got.Date))
	assert.Empty(t, got.TransferID)

	got.Description = "Groceries"
	require.NoError(t, s.UpdateTransaction(ctx, got))
	got, err = s.GetTransactionByID(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Description)

	moved, err := s.ReassignTransactionCategory(ctx, "Food", "Dining", model.TransactionTypeExpense)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	require.NoError(t, s.DeleteTransaction(ctx, "t2"))
	_, err = s.GetTransactionByID(ctx, "t2")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, "t2"), common.ErrNotFound)
}

func TestTransferLegsAndAudit(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAccount(ctx, testAccount("a1", "Checking", "500")))
	require.NoError(t, s.CreateAccount(ctx, testAccount("a2", "Savings", "250")))

	transfer := &model.Transfer{
		ID:                   "x1",
		SourceAccountID:      "a1",
		DestinationAccountID: "a2",
		Amount:               d("150"),
		Timestamp:            testDate,
	}
	out := testTransaction(transfer.OutTransactionID(), "a1", model.TransferCategory, "-150", model.TransactionTypeExpense, testDate)
	out.TransferID, out.RelatedAccountID = "x1", "a2"
	in := testTransaction(transfer.InTransactionID(), "a2", model.TransferCategory, "150", model.TransactionTypeIncome, testDate)
	in.TransferID, in.RelatedAccountID = "x1", "a1"

	err := service.WithTransaction(ctx, s, func(tx service.Transaction) error {
		if err := tx.CreateTransaction(ctx, &out); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, &in); err != nil {
			return err
		}
		return tx.RecordTransfer(ctx, transfer)
	})
	require.NoError(t, err)

	legs, err := s.GetTransactionsByTransferID(ctx, "x1")
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, "x1-in", legs[0].ID)
	assert.Equal(t, "a1", legs[0].RelatedAccountID)

	transfers, err := s.GetTransfers(ctx)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.True(t, d("150").Equal(transfers[0].Amount))
}

func TestWithTransactionRollsBack(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := service.WithTransaction(ctx, s, func(tx service.Transaction) error {
		if err := tx.CreateAccount(ctx, testAccount("a1", "Checking", "0")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	accounts, err := s.GetAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestCategories(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	food := &model.Category{ID: "c1", Name: " Food ", Type: model.CategoryTypeExpense, Icon: "fork"}
	require.NoError(t, s.CreateCategory(ctx, food))
	assert.Equal(t, "Food", food.Name)
	require.NoError(t, s.CreateCategory(ctx, &model.Category{ID: "c2", Name: "Food", Type: model.CategoryTypeIncome}))

	err := s.CreateCategory(ctx, &model.Category{ID: "c3", Name: "Food", Type: model.CategoryTypeExpense})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	exists, err := s.CategoryNameExists(ctx, "FOOD", model.CategoryTypeExpense, "")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.CategoryNameExists(ctx, "food", model.CategoryTypeExpense, "c1")
	require.NoError(t, err)
	assert.False(t, exists)

	food.Name = "Groceries"
	require.NoError(t, s.UpdateCategory(ctx, food))
	got, err := s.GetCategoryByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)
	assert.Equal(t, "fork", got.Icon)

	categories, err := s.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)

	require.NoError(t, s.DeleteCategory(ctx, "c2"))
	_, err = s.GetCategoryByID(ctx, "c2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestBudgets(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	withThreshold := &model.Budget{
		ID:             "b1",
		Category:       "Food",
		BudgetedAmount: d("400"),
		Period:         model.BudgetPeriodMonthly,
		Currency:       "USD",
		AlertThreshold: decimal.NewNullDecimal(d("75")),
	}
	plain := &model.Budget{
		ID:             "b2",
		Category:       "Travel",
		BudgetedAmount: d("1200"),
		Period:         model.BudgetPeriodYearly,
		Currency:       "USD",
	}
	require.NoError(t, s.CreateBudget(ctx, withThreshold))
	require.NoError(t, s.CreateBudget(ctx, plain))

	got, err := s.GetBudgetByID(ctx, "b1")
	require.NoError(t, err)
	require.True(t, got.AlertThreshold.Valid)
	assert.True(t, d("75").Equal(got.AlertThreshold.Decimal))

	got, err = s.GetBudgetByID(ctx, "b2")
	require.NoError(t, err)
	assert.False(t, got.AlertThreshold.Valid)

	require.NoError(t, s.UpdateBudgetSpent(ctx, "b1", d("123.45")))
	got, err = s.GetBudgetByID(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, d("123.45").Equal(got.SpentAmount))

	n, err := s.ReassignBudgetCategory(ctx, "Food", "Groceries")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteBudgetsByCategory(ctx, "Travel")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	budgets, err := s.GetBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, "Groceries", budgets[0].Category)

	require.NoError(t, s.DeleteBudget(ctx, "b1"))
	assert.ErrorIs(t, s.DeleteBudget(ctx, "b1"), common.ErrNotFound)
}

func TestSettings(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.GetSetting(ctx, "currency")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, s.SetSetting(ctx, "currency", "USD"))
	require.NoError(t, s.SetSetting(ctx, "currency", "EUR"))

	value, err := s.GetSetting(ctx, "currency")
	require.NoError(t, err)
	assert.Equal(t, "EUR", value)
}

func TestValidation(t *testing.T) {
	s := newTestStorage(t)

	//nolint:staticcheck // exercising nil-context guard
	_, err := s.GetAccounts(nil)
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = s.GetTransactionByID(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}
