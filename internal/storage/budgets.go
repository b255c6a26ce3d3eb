package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
)

const budgetColumns = `id, category, budgeted_amount, spent_amount, period, currency, alert_threshold, created_at, updated_at`

func scanBudget(row interface{ Scan(...any) error }) (model.Budget, error) {
	var b model.Budget
	err := row.Scan(&b.ID, &b.Category, &b.BudgetedAmount, &b.SpentAmount, &b.Period,
		&b.Currency, &b.AlertThreshold, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// GetBudgets returns every budget ordered by category.
func (r repo) GetBudgets(ctx context.Context) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY category COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}

// GetBudgetByID returns the budget or common.ErrNotFound.
func (r repo) GetBudgetByID(ctx context.Context, id string) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	b, err := scanBudget(r.q.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("budget %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return &b, nil
}

// CreateBudget inserts a budget, filling missing timestamps.
func (r repo) CreateBudget(ctx context.Context, b *model.Budget) error {
	if err := validateEntity(ctx, b); err != nil {
		return err
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}

	_, err := r.exec(ctx, `
		INSERT INTO budgets (`+budgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Category, b.BudgetedAmount, b.SpentAmount, b.Period, b.Currency,
		b.AlertThreshold, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create budget for %q: %w", b.Category, err)
	}
	slog.Info("created budget", "id", b.ID, "category", b.Category, "amount", b.BudgetedAmount)
	return nil
}

// UpdateBudget overwrites every budget column except created_at.
func (r repo) UpdateBudget(ctx context.Context, b *model.Budget) error {
	if err := validateEntity(ctx, b); err != nil {
		return err
	}
	return r.execOne(ctx, "update budget", b.ID, `
		UPDATE budgets
		SET category = ?, budgeted_amount = ?, spent_amount = ?, period = ?,
		    currency = ?, alert_threshold = ?, updated_at = ?
		WHERE id = ?`,
		b.Category, b.BudgetedAmount, b.SpentAmount, b.Period, b.Currency,
		b.AlertThreshold, b.UpdatedAt, b.ID)
}

// DeleteBudget removes one budget.
func (r repo) DeleteBudget(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return r.execOne(ctx, "delete budget", id, `DELETE FROM budgets WHERE id = ?`, id)
}

// UpdateBudgetSpent sets the spent amount of a budget.
func (r repo) UpdateBudgetSpent(ctx context.Context, id string, spent decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return r.execOne(ctx, "update spending of budget", id,
		`UPDATE budgets SET spent_amount = ?, updated_at = ? WHERE id = ?`,
		spent, time.Now().UTC(), id)
}

// ReassignBudgetCategory points every budget on one category name at another.
func (r repo) ReassignBudgetCategory(ctx context.Context, from, to string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(to, "to"); err != nil {
		return 0, err
	}
	n, err := r.exec(ctx, `UPDATE budgets SET category = ?, updated_at = ? WHERE category = ?`,
		to, time.Now().UTC(), from)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign budgets from %q to %q: %w", from, to, err)
	}
	return n, nil
}

// DeleteBudgetsByCategory removes every budget on a category name.
func (r repo) DeleteBudgetsByCategory(ctx context.Context, category string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	n, err := r.exec(ctx, `DELETE FROM budgets WHERE category = ?`, category)
	if err != nil {
		return 0, fmt.Errorf("failed to delete budgets for %q: %w", category, err)
	}
	if n > 0 {
		slog.Info("deleted budgets for category", "category", category, "count", n)
	}
	return n, nil
}
