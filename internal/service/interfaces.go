// Package service defines the persistence contract the ledger engine depends on.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	AccountID string
	Category  string
	Limit     int
	Offset    int
}

// Repository is the per-entity CRUD surface. Every call may fail; callers
// get no atomicity across calls unless they run them inside a Transaction.
type Repository interface {
	// Account operations
	GetAccounts(ctx context.Context) ([]model.Account, error)
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	CreateAccount(ctx context.Context, account *model.Account) error
	UpdateAccount(ctx context.Context, account *model.Account) error
	DeleteAccount(ctx context.Context, id string) error
	UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error
	AccountNameExists(ctx context.Context, name, excludeID string) (bool, error)

	// Transaction operations
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactionsByTransferID(ctx context.Context, transferID string) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	SaveTransactions(ctx context.Context, txns []model.Transaction) (int, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	ReassignTransactionCategory(ctx context.Context, from, to string, txnType model.TransactionType) (int64, error)

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
	CategoryNameExists(ctx context.Context, name string, categoryType model.CategoryType, excludeID string) (bool, error)

	// Budget operations
	GetBudgets(ctx context.Context) ([]model.Budget, error)
	GetBudgetByID(ctx context.Context, id string) (*model.Budget, error)
	CreateBudget(ctx context.Context, budget *model.Budget) error
	UpdateBudget(ctx context.Context, budget *model.Budget) error
	DeleteBudget(ctx context.Context, id string) error
	UpdateBudgetSpent(ctx context.Context, id string, amount decimal.Decimal) error
	ReassignBudgetCategory(ctx context.Context, from, to string) (int64, error)
	DeleteBudgetsByCategory(ctx context.Context, category string) (int64, error)

	// Transfer audit
	RecordTransfer(ctx context.Context, transfer *model.Transfer) error
	GetTransfers(ctx context.Context) ([]model.Transfer, error)

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	Repository

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Repository
	Commit() error
	Rollback() error
}

// WithTransaction runs fn inside a transaction, committing when fn succeeds
// and rolling back otherwise.
func WithTransaction(ctx context.Context, s Storage, fn func(Transaction) error) (err error) {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
