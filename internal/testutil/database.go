// Package testutil provides test helpers: a migrated in-memory ledger
// database and builders for ledger fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/service"
	"github.com/Veraticus/ledgerflow/internal/storage"
)

// TestDB is a migrated in-memory database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions configures SetupTestDBWithOptions.
type TestDBOptions struct {
	CustomSetup      func(context.Context, service.Storage) error
	Accounts         []model.Account
	Transactions     []model.Transaction
	Budgets          []model.Budget
	SkipDefaultSeeds bool
}

// SetupTestDB creates an in-memory database seeded with the default
// categories. It is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	db.MustCreateAccount(testutil.NewAccount("chk").WithBalance("100").Build())
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates an in-memory database and seeds it as opts
// describe.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	s, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{Storage: s, t: t}
	if !opts.SkipDefaultSeeds {
		for _, c := range model.DefaultCategories() {
			db.MustCreateCategory(c)
		}
	}
	for _, a := range opts.Accounts {
		db.MustCreateAccount(a)
	}
	for _, txn := range opts.Transactions {
		db.MustCreateTransaction(txn)
	}
	for _, b := range opts.Budgets {
		db.MustCreateBudget(b)
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, s); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}
	return db
}

// MustCreateAccount stores an account or fails the test.
func (db *TestDB) MustCreateAccount(a model.Account) model.Account {
	db.t.Helper()
	if err := db.Storage.CreateAccount(context.Background(), &a); err != nil {
		db.t.Fatalf("failed to seed account %q: %v", a.Name, err)
	}
	return a
}

// MustCreateCategory stores a category or fails the test.
func (db *TestDB) MustCreateCategory(c model.Category) model.Category {
	db.t.Helper()
	if err := db.Storage.CreateCategory(context.Background(), &c); err != nil {
		db.t.Fatalf("failed to seed category %q: %v", c.Name, err)
	}
	return c
}

// MustCreateTransaction stores a transaction as-is, without touching the
// account balance, or fails the test.
func (db *TestDB) MustCreateTransaction(txn model.Transaction) model.Transaction {
	db.t.Helper()
	if err := db.Storage.CreateTransaction(context.Background(), &txn); err != nil {
		db.t.Fatalf("failed to seed transaction %s: %v", txn.ID, err)
	}
	return txn
}

// MustCreateBudget stores a budget or fails the test.
func (db *TestDB) MustCreateBudget(b model.Budget) model.Budget {
	db.t.Helper()
	if err := db.Storage.CreateBudget(context.Background(), &b); err != nil {
		db.t.Fatalf("failed to seed budget for %q: %v", b.Category, err)
	}
	return b
}
