package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/ledger"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/service"
)

// ErrTransferLeg is returned when a transfer leg is edited on its own.
var ErrTransferLeg = errors.New("transfer legs cannot be edited individually")

// prepare fills defaults, makes the amount sign follow the type and validates.
func (e *Engine) prepare(t *model.Transaction) error {
	if t.ID == "" {
		t.ID = e.newID()
	}
	if t.Date.IsZero() {
		t.Date = e.now()
	}
	t.Date = t.Date.UTC()
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" {
		t.Category = model.UncategorizedCategory
	}
	t.NormalizeSign()
	return t.Validate()
}

// AddTransaction records a transaction, moves the owning account's balance
// and the spending of matching budgets, and raises any budget alert that
// became due.
func (e *Engine) AddTransaction(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.prepare(&t); err != nil {
		return model.Transaction{}, err
	}
	s := e.store.Snapshot()
	if _, ok := s.Account(t.AccountID); !ok {
		return model.Transaction{}, fmt.Errorf("%w: %s", common.ErrAccountNotFound, t.AccountID)
	}

	r := rippleOf(s, nil, []model.Transaction{t})
	intent := append(ledger.Batch{ledger.AddTransaction{Transaction: t}}, r.intents(t.Date)...)
	next, err := e.commit(ctx, intent, func(tx service.Transaction, prev, _ *ledger.Snapshot) error {
		if err := tx.CreateTransaction(ctx, &t); err != nil {
			return err
		}
		return r.persist(ctx, tx, prev)
	})
	if err != nil {
		return model.Transaction{}, err
	}

	slog.Debug("transaction added", "id", t.ID, "account_id", t.AccountID, "amount", t.Amount)
	e.processAlerts(ctx, next, t)
	return t, nil
}

// UpdateTransaction replaces a transaction. Balances and budget spending are
// moved by the difference, including when the account changes.
func (e *Engine) UpdateTransaction(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.store.Snapshot()
	old, ok := s.Transaction(t.ID)
	if !ok {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, common.ErrNotFound)
	}
	if old.IsTransfer() {
		return model.Transaction{}, fmt.Errorf("%w: %s", ErrTransferLeg, t.ID)
	}
	if err := e.prepare(&t); err != nil {
		return model.Transaction{}, err
	}
	if _, ok := s.Account(t.AccountID); !ok {
		return model.Transaction{}, fmt.Errorf("%w: %s", common.ErrAccountNotFound, t.AccountID)
	}

	r := rippleOf(s, []model.Transaction{old}, []model.Transaction{t})
	intent := append(ledger.Batch{ledger.UpdateTransaction{Transaction: t}}, r.intents(e.now().UTC())...)
	next, err := e.commit(ctx, intent, func(tx service.Transaction, prev, _ *ledger.Snapshot) error {
		if err := tx.UpdateTransaction(ctx, &t); err != nil {
			return err
		}
		return r.persist(ctx, tx, prev)
	})
	if err != nil {
		return model.Transaction{}, err
	}

	e.processAlerts(ctx, next, t)
	return t, nil
}

// DeleteTransaction removes a transaction and reverses its effect on the
// account balance. Deleting either leg of a transfer removes both.
func (e *Engine) DeleteTransaction(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.store.Snapshot()
	t, ok := s.Transaction(id)
	if !ok {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	removed := []model.Transaction{t}
	if t.IsTransfer() {
		removed = s.TransactionsForTransfer(t.TransferID)
	}

	r := rippleOf(s, removed, nil)
	intent := ledger.Batch{}
	for _, rt := range removed {
		intent = append(intent, ledger.DeleteTransaction{ID: rt.ID})
	}
	intent = append(intent, r.intents(e.now().UTC())...)

	_, err := e.commit(ctx, intent, func(tx service.Transaction, prev, _ *ledger.Snapshot) error {
		for _, rt := range removed {
			if err := tx.DeleteTransaction(ctx, rt.ID); err != nil {
				return err
			}
		}
		return r.persist(ctx, tx, prev)
	})
	if err != nil {
		return err
	}
	slog.Debug("transaction deleted", "id", id, "legs", len(removed))
	return nil
}

// ImportTransactions records statement transactions for an account. Those
// whose ID is already in the ledger are skipped, so overlapping statements can
// be imported repeatedly. It returns the number of transactions added.
func (e *Engine) ImportTransactions(ctx context.Context, accountID string, txns []model.Transaction) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.store.Snapshot()
	if _, ok := s.Account(accountID); !ok {
		return 0, fmt.Errorf("%w: %s", common.ErrAccountNotFound, accountID)
	}

	fresh := make([]model.Transaction, 0, len(txns))
	seen := make(map[string]bool, len(txns))
	for _, t := range txns {
		t.AccountID = accountID
		if err := e.prepare(&t); err != nil {
			return 0, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		if _, exists := s.Transaction(t.ID); exists || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		fresh = append(fresh, t)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	r := rippleOf(s, nil, fresh)
	intent := ledger.Batch{}
	for _, t := range fresh {
		intent = append(intent, ledger.AddTransaction{Transaction: t})
	}
	intent = append(intent, r.intents(e.now().UTC())...)

	next, err := e.commit(ctx, intent, func(tx service.Transaction, prev, _ *ledger.Snapshot) error {
		n, err := tx.SaveTransactions(ctx, fresh)
		if err != nil {
			return err
		}
		if n != len(fresh) {
			return fmt.Errorf("%w: %d of %d imported transactions already stored", common.ErrDuplicateEntry, len(fresh)-n, len(fresh))
		}
		return r.persist(ctx, tx, prev)
	})
	if err != nil {
		return 0, err
	}

	slog.Info("imported transactions", "account_id", accountID, "added", len(fresh), "skipped", len(txns)-len(fresh))
	e.processAlerts(ctx, next, fresh...)
	return len(fresh), nil
}
