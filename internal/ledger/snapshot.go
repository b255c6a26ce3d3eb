// Package ledger holds the in-memory ledger state and the pure transitions that
// keep accounts, transactions, categories and budgets consistent with each other.
//
// A Snapshot is never mutated once built. Every transition copies the
// collections it touches and returns a new Snapshot; untouched collections are
// shared between snapshots. Transitions perform no I/O and read no clock, so
// applying the same intent to the same snapshot always yields the same result.
package ledger

import (
	"slices"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// Snapshot is an immutable point-in-time copy of the ledger.
type Snapshot struct {
	accounts     []model.Account
	transactions []model.Transaction // Most recent first
	categories   []model.Category
	budgets      []model.Budget
	version      uint64
}

// NewSnapshot builds a snapshot from the given collections. The slices are
// copied, so callers may keep using their own.
func NewSnapshot(accounts []model.Account, transactions []model.Transaction, categories []model.Category, budgets []model.Budget) *Snapshot {
	return &Snapshot{
		accounts:     slices.Clone(accounts),
		transactions: slices.Clone(transactions),
		categories:   slices.Clone(categories),
		budgets:      slices.Clone(budgets),
	}
}

// Empty returns a snapshot with no data.
func Empty() *Snapshot {
	return &Snapshot{}
}

// Version counts the transitions that led to this snapshot.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Accounts returns a copy of all accounts.
func (s *Snapshot) Accounts() []model.Account {
	return slices.Clone(s.accounts)
}

// Transactions returns a copy of all transactions, most recently added first.
func (s *Snapshot) Transactions() []model.Transaction {
	return slices.Clone(s.transactions)
}

// Categories returns a copy of all categories.
func (s *Snapshot) Categories() []model.Category {
	return slices.Clone(s.categories)
}

// Budgets returns a copy of all budgets.
func (s *Snapshot) Budgets() []model.Budget {
	return slices.Clone(s.budgets)
}

// Account looks up an account by ID.
func (s *Snapshot) Account(id string) (model.Account, bool) {
	i := s.accountIndex(id)
	if i < 0 {
		return model.Account{}, false
	}
	return s.accounts[i], true
}

// Transaction looks up a transaction by ID.
func (s *Snapshot) Transaction(id string) (model.Transaction, bool) {
	i := s.transactionIndex(id)
	if i < 0 {
		return model.Transaction{}, false
	}
	return s.transactions[i], true
}

// Category looks up a category by ID.
func (s *Snapshot) Category(id string) (model.Category, bool) {
	i := s.categoryIndex(id)
	if i < 0 {
		return model.Category{}, false
	}
	return s.categories[i], true
}

// CategoryByName finds the category of the given type whose name matches,
// ignoring case and surrounding whitespace.
func (s *Snapshot) CategoryByName(name string, t model.CategoryType) (model.Category, bool) {
	for _, c := range s.categories {
		if c.Type == t && model.SameName(c.Name, name) {
			return c, true
		}
	}
	return model.Category{}, false
}

// Budget looks up a budget by ID.
func (s *Snapshot) Budget(id string) (model.Budget, bool) {
	i := s.budgetIndex(id)
	if i < 0 {
		return model.Budget{}, false
	}
	return s.budgets[i], true
}

// BudgetsForCategory returns the budgets targeting the named category.
func (s *Snapshot) BudgetsForCategory(name string) []model.Budget {
	var out []model.Budget
	for _, b := range s.budgets {
		if b.Category == name {
			out = append(out, b)
		}
	}
	return out
}

// TransactionsForTransfer returns both legs of a transfer.
func (s *Snapshot) TransactionsForTransfer(transferID string) []model.Transaction {
	var out []model.Transaction
	for _, t := range s.transactions {
		if t.TransferID == transferID {
			out = append(out, t)
		}
	}
	return out
}

// next returns a shallow copy with the version bumped. Callers must replace,
// never modify in place, any collection they change.
func (s *Snapshot) next() *Snapshot {
	n := *s
	n.version = s.version + 1
	return &n
}

func (s *Snapshot) accountIndex(id string) int {
	return slices.IndexFunc(s.accounts, func(a model.Account) bool { return a.ID == id })
}

func (s *Snapshot) transactionIndex(id string) int {
	return slices.IndexFunc(s.transactions, func(t model.Transaction) bool { return t.ID == id })
}

func (s *Snapshot) categoryIndex(id string) int {
	return slices.IndexFunc(s.categories, func(c model.Category) bool { return c.ID == id })
}

func (s *Snapshot) budgetIndex(id string) int {
	return slices.IndexFunc(s.budgets, func(b model.Budget) bool { return b.ID == id })
}
