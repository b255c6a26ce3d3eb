package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/ledger"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/service"
)

// AddAccount creates an account. ID, currency and timestamps are filled in
// when missing.
func (e *Engine) AddAccount(ctx context.Context, a model.Account) (model.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().UTC()
	if a.ID == "" {
		a.ID = e.newID()
	}
	if a.Currency == "" {
		a.Currency = e.currency
	}
	a.Name = strings.TrimSpace(a.Name)
	a.Currency = strings.ToUpper(a.Currency)
	a.CreatedAt, a.UpdatedAt = now, now
	if err := a.Validate(); err != nil {
		return model.Account{}, err
	}
	if err := e.ensureUniqueAccountName(ctx, a.Name, ""); err != nil {
		return model.Account{}, err
	}

	_, err := e.commit(ctx, ledger.AddAccount{At: now, Account: a}, func(tx service.Transaction, _, _ *ledger.Snapshot) error {
		return tx.CreateAccount(ctx, &a)
	})
	if err != nil {
		return model.Account{}, err
	}
	slog.Info("account added", "id", a.ID, "name", a.Name, "type", a.Type)
	return a, nil
}

// UpdateAccount changes an account's name, type or currency. The balance only
// moves through transactions, transfers and AdjustBalance.
func (e *Engine) UpdateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, ok := e.store.Snapshot().Account(a.ID)
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %s", common.ErrAccountNotFound, a.ID)
	}
	if name := strings.TrimSpace(a.Name); name != "" {
		existing.Name = name
	}
	if a.Type != "" {
		existing.Type = a.Type
	}
	if a.Currency != "" {
		existing.Currency = strings.ToUpper(a.Currency)
	}
	existing.UpdatedAt = e.now().UTC()
	if err := existing.Validate(); err != nil {
		return model.Account{}, err
	}
	if err := e.ensureUniqueAccountName(ctx, existing.Name, existing.ID); err != nil {
		return model.Account{}, err
	}

	_, err := e.commit(ctx, ledger.UpdateAccount{Account: existing}, func(tx service.Transaction, _, _ *ledger.Snapshot) error {
		return tx.UpdateAccount(ctx, &existing)
	})
	if err != nil {
		return model.Account{}, err
	}
	return existing, nil
}

// DeleteAccount removes an account together with its transactions.
func (e *Engine) DeleteAccount(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.store.Snapshot().Account(id)
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrAccountNotFound, id)
	}

	_, err := e.commit(ctx, ledger.DeleteAccount{ID: id, Cascade: true}, func(tx service.Transaction, _, _ *ledger.Snapshot) error {
		return tx.DeleteAccount(ctx, id)
	})
	if err != nil {
		return err
	}
	slog.Info("account deleted", "id", id, "name", a.Name)
	return nil
}

// AdjustBalance adds delta to an account balance without recording a
// transaction, e.g. to reconcile with a bank statement.
func (e *Engine) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (model.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.store.Snapshot().Account(id)
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %s", common.ErrAccountNotFound, id)
	}

	next, err := e.commit(ctx, ledger.AdjustBalance{At: e.now().UTC(), AccountID: id, Delta: delta},
		func(tx service.Transaction, _, _ *ledger.Snapshot) error {
			return tx.UpdateAccountBalance(ctx, id, a.Balance.Add(delta))
		})
	if err != nil {
		return model.Account{}, err
	}
	updated, _ := next.Account(id)
	return updated, nil
}

func (e *Engine) ensureUniqueAccountName(ctx context.Context, name, excludeID string) error {
	exists, err := e.storage.AccountNameExists(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: account %q", common.ErrDuplicateEntry, name)
	}
	return nil
}
