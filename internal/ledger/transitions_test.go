package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/model"
)

func TestApplyAddAccount_FillsTimestamps(t *testing.T) {
	s := Empty()
	a := model.Account{ID: "a1", Name: "Checking", Type: model.AccountTypeChecking, Currency: "USD"}

	n := ApplyAddAccount(s, a, testTime)

	require.Len(t, n.Accounts(), 1)
	got, ok := n.Account("a1")
	require.True(t, ok)
	assert.Equal(t, testTime, got.CreatedAt)
	assert.Equal(t, testTime, got.UpdatedAt)
	assert.Empty(t, s.Accounts(), "input snapshot must not change")
	assert.Equal(t, s.Version()+1, n.Version())
}

func TestApplyDeleteAccount_KeepsTransactions(t *testing.T) {
	s := NewSnapshot(
		[]model.Account{account("a1", "Checking", model.AccountTypeChecking, "100")},
		[]model.Transaction{expense("t1", "a1", "Food", "10")},
		nil, nil,
	)

	n := ApplyDeleteAccount(s, "a1")
	assert.Empty(t, n.Accounts())
	assert.Len(t, n.Transactions(), 1)

	purged := ApplyPurgeAccountTransactions(n, "a1")
	assert.Empty(t, purged.Transactions())
}

func TestTransactionTransitions(t *testing.T) {
	s := NewSnapshot(nil, []model.Transaction{expense("t1", "a1", "Food", "10")}, nil, nil)

	s = ApplyAddTransaction(s, expense("t2", "a1", "Food", "20"))
	txns := s.Transactions()
	require.Len(t, txns, 2)
	assert.Equal(t, "t2", txns[0].ID, "new transactions go first")

	updated := expense("t1", "a1", "Shopping", "15")
	s = ApplyUpdateTransaction(s, updated)
	got, ok := s.Transaction("t1")
	require.True(t, ok)
	assert.Equal(t, "Shopping", got.Category)
	assert.True(t, got.Amount.Equal(d("-15")))

	s = ApplyDeleteTransaction(s, "t2")
	_, ok = s.Transaction("t2")
	assert.False(t, ok)
}

func TestTransitions_UnknownIDIsNoop(t *testing.T) {
	s := NewSnapshot(nil, nil, nil, nil)

	assert.Same(t, s, ApplyUpdateAccount(s, model.Account{ID: "missing"}))
	assert.Same(t, s, ApplyDeleteAccount(s, "missing"))
	assert.Same(t, s, ApplyAdjustBalance(s, "missing", d("1"), testTime))
	assert.Same(t, s, ApplyUpdateTransaction(s, model.Transaction{ID: "missing"}))
	assert.Same(t, s, ApplyDeleteTransaction(s, "missing"))
	assert.Same(t, s, ApplyUpdateBudget(s, model.Budget{ID: "missing"}))
	assert.Same(t, s, ApplyDeleteBudget(s, "missing"))
	assert.Same(t, s, ApplyBudgetSpent(s, "missing", d("1"), testTime))
}

func TestBudgetSpentTransitions(t *testing.T) {
	s := NewSnapshot(nil, nil, nil, []model.Budget{budget("b1", "Food", "200", "50")})

	s = ApplyBudgetSpent(s, "b1", d("25.50"), testTime)
	b, _ := s.Budget("b1")
	assert.True(t, b.SpentAmount.Equal(d("75.50")))

	s = ApplySetBudgetSpent(s, "b1", d("10"), testTime)
	b, _ = s.Budget("b1")
	assert.True(t, b.SpentAmount.Equal(d("10")))
}

func TestTransitions_AreDeterministic(t *testing.T) {
	base := NewSnapshot(
		[]model.Account{account("a1", "Checking", model.AccountTypeChecking, "100")},
		nil, nil, nil,
	)
	txn := income("t1", "a1", "Salary", "1000")

	first := ApplyAddTransaction(base, txn)
	second := ApplyAddTransaction(base, txn)

	assert.Equal(t, first, second)
	assert.Empty(t, base.Transactions())
}
