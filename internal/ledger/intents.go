package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// Intent is a mutation request the Store can dispatch. Apply must be pure: on
// error it returns the input snapshot.
type Intent interface {
	Apply(s *Snapshot) (*Snapshot, error)
}

// AddAccount appends an account.
type AddAccount struct {
	At      time.Time
	Account model.Account
}

// Apply implements Intent.
func (i AddAccount) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyAddAccount(s, i.Account, i.At), nil
}

// UpdateAccount replaces an account.
type UpdateAccount struct {
	Account model.Account
}

// Apply implements Intent.
func (i UpdateAccount) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyUpdateAccount(s, i.Account), nil
}

// DeleteAccount removes an account and, when Cascade is set, its transactions.
type DeleteAccount struct {
	ID      string
	Cascade bool
}

// Apply implements Intent.
func (i DeleteAccount) Apply(s *Snapshot) (*Snapshot, error) {
	n := ApplyDeleteAccount(s, i.ID)
	if i.Cascade {
		n = ApplyPurgeAccountTransactions(n, i.ID)
	}
	return n, nil
}

// AdjustBalance adds Delta to an account balance.
type AdjustBalance struct {
	At        time.Time
	AccountID string
	Delta     decimal.Decimal
}

// Apply implements Intent.
func (i AdjustBalance) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyAdjustBalance(s, i.AccountID, i.Delta, i.At), nil
}

// AddTransaction records a transaction.
type AddTransaction struct {
	Transaction model.Transaction
}

// Apply implements Intent.
func (i AddTransaction) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyAddTransaction(s, i.Transaction), nil
}

// UpdateTransaction replaces a transaction.
type UpdateTransaction struct {
	Transaction model.Transaction
}

// Apply implements Intent.
func (i UpdateTransaction) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyUpdateTransaction(s, i.Transaction), nil
}

// DeleteTransaction removes a transaction.
type DeleteTransaction struct {
	ID string
}

// Apply implements Intent.
func (i DeleteTransaction) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyDeleteTransaction(s, i.ID), nil
}

// ExecuteTransfer moves funds between two accounts.
type ExecuteTransfer struct {
	Transfer model.Transfer
}

// Apply implements Intent.
func (i ExecuteTransfer) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyTransfer(s, i.Transfer), nil
}

// AddCategory creates a category.
type AddCategory struct {
	Category model.Category
}

// Apply implements Intent.
func (i AddCategory) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyAddCategory(s, i.Category)
}

// RenameCategory edits a category and cascades the change.
type RenameCategory struct {
	Update CategoryUpdate
}

// Apply implements Intent.
func (i RenameCategory) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyCategoryRenamed(s, i.Update)
}

// DeleteCategory removes a category and cascades the removal.
type DeleteCategory struct {
	Deletion CategoryDeletion
}

// Apply implements Intent.
func (i DeleteCategory) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyCategoryDeleted(s, i.Deletion)
}

// AddBudget creates a budget.
type AddBudget struct {
	At     time.Time
	Budget model.Budget
}

// Apply implements Intent.
func (i AddBudget) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyAddBudget(s, i.Budget, i.At), nil
}

// UpdateBudget replaces a budget.
type UpdateBudget struct {
	Budget model.Budget
}

// Apply implements Intent.
func (i UpdateBudget) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyUpdateBudget(s, i.Budget), nil
}

// DeleteBudget removes a budget.
type DeleteBudget struct {
	ID string
}

// Apply implements Intent.
func (i DeleteBudget) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyDeleteBudget(s, i.ID), nil
}

// RecordBudgetSpending adds Delta to a budget's spent amount.
type RecordBudgetSpending struct {
	At       time.Time
	BudgetID string
	Delta    decimal.Decimal
}

// Apply implements Intent.
func (i RecordBudgetSpending) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplyBudgetSpent(s, i.BudgetID, i.Delta, i.At), nil
}

// SetBudgetSpent overwrites a budget's spent amount.
type SetBudgetSpent struct {
	At       time.Time
	BudgetID string
	Amount   decimal.Decimal
}

// Apply implements Intent.
func (i SetBudgetSpent) Apply(s *Snapshot) (*Snapshot, error) {
	return ApplySetBudgetSpent(s, i.BudgetID, i.Amount, i.At), nil
}

// Batch applies several intents as a single transition. If any intent fails
// the original snapshot and that error are returned.
type Batch []Intent

// Apply implements Intent.
func (b Batch) Apply(s *Snapshot) (*Snapshot, error) {
	cur := s
	for _, intent := range b {
		next, err := intent.Apply(cur)
		if err != nil {
			return s, err
		}
		cur = next
	}
	if cur != s {
		collapsed := *cur
		collapsed.version = s.version + 1
		cur = &collapsed
	}
	return cur, nil
}
