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

const accountColumns = `id, name, type, balance, currency, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Balance, &a.Currency, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// GetAccounts returns all accounts ordered by name.
func (r repo) GetAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	slog.Debug("retrieved accounts", "count", len(accounts))
	return accounts, nil
}

// GetAccountByID returns the account or common.ErrNotFound.
func (r repo) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	a, err := scanAccount(r.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

// CreateAccount inserts an account, filling missing timestamps.
func (r repo) CreateAccount(ctx context.Context, a *model.Account) error {
	if err := validateEntity(ctx, a); err != nil {
		return err
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	_, err := r.exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Type, a.Balance, a.Currency, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("created account", "id", a.ID, "name", a.Name)
	return nil
}

// UpdateAccount overwrites every account column.
func (r repo) UpdateAccount(ctx context.Context, a *model.Account) error {
	if err := validateEntity(ctx, a); err != nil {
		return err
	}
	return r.execOne(ctx, "update account", a.ID, `
		UPDATE accounts
		SET name = ?, type = ?, balance = ?, currency = ?, updated_at = ?
		WHERE id = ?`,
		a.Name, a.Type, a.Balance, a.Currency, a.UpdatedAt, a.ID)
}

// DeleteAccount removes an account; its transactions go with it.
func (r repo) DeleteAccount(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := r.execOne(ctx, "delete account", id, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return err
	}
	slog.Info("deleted account", "id", id)
	return nil
}

// UpdateAccountBalance sets the balance of an account.
func (r repo) UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return r.execOne(ctx, "update balance of account", id,
		`UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		balance, time.Now().UTC(), id)
}

// AccountNameExists reports whether another account already uses name,
// ignoring case.
func (r repo) AccountNameExists(ctx context.Context, name, excludeID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE name = ? COLLATE NOCASE AND id != ?`,
		name, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check account name: %w", err)
	}
	return count > 0, nil
}
