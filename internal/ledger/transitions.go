package ledger

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// ApplyAddAccount appends an account. Missing timestamps are filled with at.
// Duplicate IDs are not detected here.
func ApplyAddAccount(s *Snapshot, account model.Account, at time.Time) *Snapshot {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = at
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = account.CreatedAt
	}
	n := s.next()
	n.accounts = append(slices.Clone(s.accounts), account)
	return n
}

// ApplyUpdateAccount replaces the account with the same ID. Unknown IDs are a no-op.
func ApplyUpdateAccount(s *Snapshot, account model.Account) *Snapshot {
	i := s.accountIndex(account.ID)
	if i < 0 {
		return s
	}
	n := s.next()
	n.accounts = slices.Clone(s.accounts)
	n.accounts[i] = account
	return n
}

// ApplyDeleteAccount removes an account. Its transactions stay in the snapshot;
// use ApplyPurgeAccountTransactions to drop them as well.
func ApplyDeleteAccount(s *Snapshot, id string) *Snapshot {
	i := s.accountIndex(id)
	if i < 0 {
		return s
	}
	n := s.next()
	n.accounts = slices.Delete(slices.Clone(s.accounts), i, i+1)
	return n
}

// ApplyPurgeAccountTransactions removes every transaction owned by the account.
func ApplyPurgeAccountTransactions(s *Snapshot, accountID string) *Snapshot {
	if !slices.ContainsFunc(s.transactions, func(t model.Transaction) bool { return t.AccountID == accountID }) {
		return s
	}
	n := s.next()
	n.transactions = slices.DeleteFunc(slices.Clone(s.transactions), func(t model.Transaction) bool {
		return t.AccountID == accountID
	})
	return n
}

// ApplyAdjustBalance adds delta to an account balance.
func ApplyAdjustBalance(s *Snapshot, accountID string, delta decimal.Decimal, at time.Time) *Snapshot {
	i := s.accountIndex(accountID)
	if i < 0 {
		return s
	}
	n := s.next()
	n.accounts = slices.Clone(s.accounts)
	n.accounts[i].Balance = n.accounts[i].Balance.Add(delta)
	n.accounts[i].UpdatedAt = at
	return n
}

// ApplyAddTransaction inserts a transaction at the head of the list.
func ApplyAddTransaction(s *Snapshot, txn model.Transaction) *Snapshot {
	n := s.next()
	n.transactions = make([]model.Transaction, 0, len(s.transactions)+1)
	n.transactions = append(n.transactions, txn)
	n.transactions = append(n.transactions, s.transactions...)
	return n
}

// ApplyUpdateTransaction replaces the transaction with the same ID.
func ApplyUpdateTransaction(s *Snapshot, txn model.Transaction) *Snapshot {
	i := s.transactionIndex(txn.ID)
	if i < 0 {
		return s
	}
	n := s.next()
	n.transactions = slices.Clone(s.transactions)
	n.transactions[i] = txn
	return n
}

// ApplyDeleteTransaction removes the transaction with the given ID.
func ApplyDeleteTransaction(s *Snapshot, id string) *Snapshot {
	i := s.transactionIndex(id)
	if i < 0 {
		return s
	}
	n := s.next()
	n.transactions = slices.Delete(slices.Clone(s.transactions), i, i+1)
	return n
}

// ApplyAddBudget appends a budget. Missing timestamps are filled with at.
func ApplyAddBudget(s *Snapshot, budget model.Budget, at time.Time) *Snapshot {
	if budget.CreatedAt.IsZero() {
		budget.CreatedAt = at
	}
	if budget.UpdatedAt.IsZero() {
		budget.UpdatedAt = budget.CreatedAt
	}
	n := s.next()
	n.budgets = append(slices.Clone(s.budgets), budget)
	return n
}

// ApplyUpdateBudget replaces the budget with the same ID.
func ApplyUpdateBudget(s *Snapshot, budget model.Budget) *Snapshot {
	i := s.budgetIndex(budget.ID)
	if i < 0 {
		return s
	}
	n := s.next()
	n.budgets = slices.Clone(s.budgets)
	n.budgets[i] = budget
	return n
}

// ApplyDeleteBudget removes the budget with the given ID.
func ApplyDeleteBudget(s *Snapshot, id string) *Snapshot {
	i := s.budgetIndex(id)
	if i < 0 {
		return s
	}
	n := s.next()
	n.budgets = slices.Delete(slices.Clone(s.budgets), i, i+1)
	return n
}

// ApplyBudgetSpent adds delta to a budget's spent amount.
func ApplyBudgetSpent(s *Snapshot, budgetID string, delta decimal.Decimal, at time.Time) *Snapshot {
	i := s.budgetIndex(budgetID)
	if i < 0 {
		return s
	}
	n := s.next()
	n.budgets = slices.Clone(s.budgets)
	n.budgets[i].SpentAmount = n.budgets[i].SpentAmount.Add(delta)
	n.budgets[i].UpdatedAt = at
	return n
}

// ApplySetBudgetSpent overwrites a budget's spent amount.
func ApplySetBudgetSpent(s *Snapshot, budgetID string, amount decimal.Decimal, at time.Time) *Snapshot {
	i := s.budgetIndex(budgetID)
	if i < 0 {
		return s
	}
	n := s.next()
	n.budgets = slices.Clone(s.budgets)
	n.budgets[i].SpentAmount = amount
	n.budgets[i].UpdatedAt = at
	return n
}
