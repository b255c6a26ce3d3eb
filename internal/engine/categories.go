package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/ledger"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/service"
)

// AddCategory creates a user category. A name already used by a category of
// the same type is rejected with ledger.ErrCategoryDuplicate.
func (e *Engine) AddCategory(ctx context.Context, in model.CategoryInput) (model.Category, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := model.Category{
		ID:    e.newID(),
		Name:  strings.TrimSpace(in.Name),
		Icon:  in.Icon,
		Color: in.Color,
		Type:  in.Type,
	}
	if c.Type == "" {
		c.Type = model.CategoryTypeExpense
	}
	if err := c.Validate(); err != nil {
		return model.Category{}, err
	}

	_, err := e.commit(ctx, ledger.AddCategory{Category: c}, func(tx service.Transaction, _, _ *ledger.Snapshot) error {
		return tx.CreateCategory(ctx, &c)
	})
	if err != nil {
		return model.Category{}, err
	}
	slog.Info("category added", "id", c.ID, "name", c.Name, "type", c.Type)
	return c, nil
}

// RenameCategory edits a category. A new name or type is carried into every
// transaction and budget that referenced the old one.
func (e *Engine) RenameCategory(ctx context.Context, id string, in model.CategoryInput) (model.Category, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev, ok := e.store.Snapshot().Category(id)
	if !ok {
		return model.Category{}, fmt.Errorf("%w: %s", common.ErrCategoryNotFound, id)
	}
	if in.Type != "" && !in.Type.Valid() {
		return model.Category{}, fmt.Errorf("%w: unknown type %q", model.ErrInvalidCategory, in.Type)
	}

	update := ledger.CategoryUpdate{At: e.now().UTC(), ID: id, Previous: prev, Updates: in}
	next, err := e.commit(ctx, ledger.RenameCategory{Update: update}, func(tx service.Transaction, before, after *ledger.Snapshot) error {
		updated, _ := after.Category(id)
		if err := tx.UpdateCategory(ctx, &updated); err != nil {
			return err
		}
		return persistCascade(ctx, tx, before, after, prev, updated.Name, updated.Type != prev.Type)
	})
	if err != nil {
		return model.Category{}, err
	}

	updated, _ := next.Category(id)
	if updated.Name != prev.Name || updated.Type != prev.Type {
		slog.Info("category renamed", "category", prev.Name, "new_name", updated.Name, "new_type", updated.Type)
	}
	return updated, nil
}

// DeleteCategory removes a user category. With reassignTo set, its
// transactions and budgets move to that category, which must have the same
// type. Otherwise its transactions become Uncategorized and its budgets are
// removed.
func (e *Engine) DeleteCategory(ctx context.Context, id, reassignTo string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.store.Snapshot()
	c, ok := s.Category(id)
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrCategoryNotFound, id)
	}

	deletion := ledger.CategoryDeletion{At: e.now().UTC(), ID: id, Category: c}
	target := model.UncategorizedCategory
	if reassignTo != "" {
		r, ok := s.Category(reassignTo)
		if !ok {
			return fmt.Errorf("%w: reassignment target %s", common.ErrCategoryNotFound, reassignTo)
		}
		if r.Type != c.Type {
			return fmt.Errorf("%w: cannot move %s transactions to %s category %q", common.ErrTypeMismatch, c.Type, r.Type, r.Name)
		}
		deletion.Reassignment = &r
		target = r.Name
	}

	if e.checkpoints != nil && !c.IsDefault {
		if _, err := e.checkpoints.AutoCheckpoint(ctx, "delete-category"); err != nil {
			slog.Warn("failed to checkpoint before category delete", "category", c.Name, "error", err)
		}
	}

	_, err := e.commit(ctx, ledger.DeleteCategory{Deletion: deletion}, func(tx service.Transaction, before, after *ledger.Snapshot) error {
		if err := tx.DeleteCategory(ctx, id); err != nil {
			return err
		}
		return persistCascade(ctx, tx, before, after, c, target, false)
	})
	if err != nil {
		return err
	}
	slog.Info("category deleted", "category", c.Name, "reassigned_to", target)
	return nil
}

// persistCascade writes what a category rename or delete did to transactions,
// account balances and budgets between before and after.
func persistCascade(ctx context.Context, repo service.Repository, before, after *ledger.Snapshot, from model.Category, to string, retyped bool) error {
	switch {
	case retyped:
		// Amount signs flipped, so rows and balances are written individually.
		if err := syncTransactions(ctx, repo, before, after); err != nil {
			return err
		}
		if err := syncBalances(ctx, repo, before, after); err != nil {
			return err
		}
	case from.Name != to:
		if _, err := repo.ReassignTransactionCategory(ctx, from.Name, to, from.Type.TransactionType()); err != nil {
			return err
		}
	}

	had, has := len(before.BudgetsForCategory(from.Name)), len(after.BudgetsForCategory(from.Name))
	switch {
	case had == 0 || had == has:
	case len(after.Budgets()) < len(before.Budgets()):
		if _, err := repo.DeleteBudgetsByCategory(ctx, from.Name); err != nil {
			return err
		}
	default:
		if _, err := repo.ReassignBudgetCategory(ctx, from.Name, to); err != nil {
			return err
		}
	}
	return nil
}

func syncTransactions(ctx context.Context, repo service.Repository, before, after *ledger.Snapshot) error {
	for _, t := range after.Transactions() {
		old, ok := before.Transaction(t.ID)
		if ok && old.Category == t.Category && old.Type == t.Type && old.Amount.Equal(t.Amount) {
			continue
		}
		if err := repo.UpdateTransaction(ctx, &t); err != nil {
			return fmt.Errorf("failed to rewrite transaction %s: %w", t.ID, err)
		}
	}
	return nil
}

func syncBalances(ctx context.Context, repo service.Repository, before, after *ledger.Snapshot) error {
	for _, a := range after.Accounts() {
		old, ok := before.Account(a.ID)
		if ok && old.Balance.Equal(a.Balance) {
			continue
		}
		if err := repo.UpdateAccountBalance(ctx, a.ID, a.Balance); err != nil {
			return fmt.Errorf("failed to update balance of %s: %w", a.Name, err)
		}
	}
	return nil
}
