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

// AddBudget creates a budget for an expense category.
func (e *Engine) AddBudget(ctx context.Context, b model.Budget) (model.Budget, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().UTC()
	if b.ID == "" {
		b.ID = e.newID()
	}
	if b.Currency == "" {
		b.Currency = e.currency
	}
	if b.Period == "" {
		b.Period = model.BudgetPeriodMonthly
	}
	b.Category = strings.TrimSpace(b.Category)
	b.CreatedAt, b.UpdatedAt = now, now
	if err := b.Validate(); err != nil {
		return model.Budget{}, err
	}
	if c, ok := e.store.Snapshot().CategoryByName(b.Category, model.CategoryTypeExpense); ok {
		b.Category = c.Name
	}

	_, err := e.commit(ctx, ledger.AddBudget{At: now, Budget: b}, func(tx service.Transaction, _, _ *ledger.Snapshot) error {
		return tx.CreateBudget(ctx, &b)
	})
	if err != nil {
		return model.Budget{}, err
	}
	slog.Info("budget added", "id", b.ID, "category", b.Category, "amount", b.BudgetedAmount)
	return b, nil
}

// UpdateBudget replaces a budget, keeping its creation time.
func (e *Engine) UpdateBudget(ctx context.Context, b model.Budget) (model.Budget, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, ok := e.store.Snapshot().Budget(b.ID)
	if !ok {
		return model.Budget{}, fmt.Errorf("%w: %s", common.ErrBudgetNotFound, b.ID)
	}
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = e.now().UTC()
	if b.Currency == "" {
		b.Currency = existing.Currency
	}
	if b.Period == "" {
		b.Period = existing.Period
	}
	b.Category = strings.TrimSpace(b.Category)
	if err := b.Validate(); err != nil {
		return model.Budget{}, err
	}

	_, err := e.commit(ctx, ledger.UpdateBudget{Budget: b}, func(tx service.Transaction, _, _ *ledger.Snapshot) error {
		return tx.UpdateBudget(ctx, &b)
	})
	if err != nil {
		return model.Budget{}, err
	}
	return b, nil
}

// DeleteBudget removes a budget.
func (e *Engine) DeleteBudget(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.store.Snapshot().Budget(id); !ok {
		return fmt.Errorf("%w: %s", common.ErrBudgetNotFound, id)
	}
	_, err := e.commit(ctx, ledger.DeleteBudget{ID: id}, func(tx service.Transaction, _, _ *ledger.Snapshot) error {
		return tx.DeleteBudget(ctx, id)
	})
	return err
}

// SetBudgetSpent overwrites the spent amount of a budget, e.g. at the start
// of a new period.
func (e *Engine) SetBudgetSpent(ctx context.Context, id string, amount decimal.Decimal) (model.Budget, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.store.Snapshot().Budget(id); !ok {
		return model.Budget{}, fmt.Errorf("%w: %s", common.ErrBudgetNotFound, id)
	}
	if amount.IsNegative() {
		return model.Budget{}, fmt.Errorf("%w: spent amount cannot be negative", model.ErrInvalidBudget)
	}

	next, err := e.commit(ctx, ledger.SetBudgetSpent{At: e.now().UTC(), BudgetID: id, Amount: amount},
		func(tx service.Transaction, _, _ *ledger.Snapshot) error {
			return tx.UpdateBudgetSpent(ctx, id, amount)
		})
	if err != nil {
		return model.Budget{}, err
	}
	b, _ := next.Budget(id)
	return b, nil
}
