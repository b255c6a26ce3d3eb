package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/service"
)

const transactionColumns = `id, account_id, amount, category, description, date, type, memo, transfer_id, related_account_id`

func scanTransaction(row interface{ Scan(...any) error }) (model.Transaction, error) {
	var (
		t         model.Transaction
		transfer  sql.NullString
		relatedID sql.NullString
	)
	err := row.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Category, &t.Description, &t.Date,
		&t.Type, &t.Memo, &transfer, &relatedID)
	t.TransferID = transfer.String
	t.RelatedAccountID = relatedID.String
	return t, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func transactionArgs(t *model.Transaction) []any {
	return []any{t.ID, t.AccountID, t.Amount, t.Category, t.Description, t.Date.UTC(),
		t.Type, t.Memo, nullString(t.TransferID), nullString(t.RelatedAccountID)}
}

func (r repo) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

// GetTransactions returns transactions matching filter, newest first.
func (r repo) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.StartDate != nil {
		where = append(where, "date >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		where = append(where, "date <= ?")
		args = append(args, filter.EndDate.UTC())
	}
	if filter.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	txns, err := r.queryTransactions(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	slog.Debug("retrieved transactions", "count", len(txns))
	return txns, nil
}

// GetTransactionByID returns the transaction or common.ErrNotFound.
func (r repo) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	t, err := scanTransaction(r.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &t, nil
}

// GetTransactionsByTransferID returns both legs of a transfer.
func (r repo) GetTransactionsByTransferID(ctx context.Context, transferID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transferID, "transferID"); err != nil {
		return nil, err
	}
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE transfer_id = ? ORDER BY id`, transferID)
}

// CreateTransaction inserts one transaction.
func (r repo) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	if err := validateEntity(ctx, t); err != nil {
		return err
	}
	_, err := r.exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, transactionArgs(t)...)
	if err != nil {
		return fmt.Errorf("failed to create transaction %s: %w", t.ID, err)
	}
	slog.Debug("created transaction", "id", t.ID, "account_id", t.AccountID, "amount", t.Amount)
	return nil
}

// SaveTransactions inserts txns, skipping IDs that already exist, and returns
// how many rows were added. Used for statement imports, which may overlap.
func (r repo) SaveTransactions(ctx context.Context, txns []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	inserted := 0
	for i := range txns {
		if err := txns[i].Validate(); err != nil {
			return inserted, fmt.Errorf("transaction at index %d: %w", i, err)
		}
		n, err := r.exec(ctx, `
			INSERT OR IGNORE INTO transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, transactionArgs(&txns[i])...)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert transaction %s: %w", txns[i].ID, err)
		}
		inserted += int(n)
	}

	slog.Info("saved transactions", "inserted", inserted, "skipped", len(txns)-inserted)
	return inserted, nil
}

// UpdateTransaction overwrites every transaction column.
func (r repo) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	if err := validateEntity(ctx, t); err != nil {
		return err
	}
	args := transactionArgs(t)
	return r.execOne(ctx, "update transaction", t.ID, `
		UPDATE transactions
		SET account_id = ?, amount = ?, category = ?, description = ?, date = ?,
		    type = ?, memo = ?, transfer_id = ?, related_account_id = ?
		WHERE id = ?`, append(args[1:], args[0])...)
}

// DeleteTransaction removes one transaction.
func (r repo) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return r.execOne(ctx, "delete transaction", id, `DELETE FROM transactions WHERE id = ?`, id)
}

// ReassignTransactionCategory moves every transaction of type txnType from
// one category name to another and returns how many moved.
func (r repo) ReassignTransactionCategory(ctx context.Context, from, to string, txnType model.TransactionType) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(to, "to"); err != nil {
		return 0, err
	}
	n, err := r.exec(ctx, `UPDATE transactions SET category = ? WHERE category = ? AND type = ?`, to, from, txnType)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign transactions from %q to %q: %w", from, to, err)
	}
	slog.Info("reassigned transaction category", "from", from, "to", to, "type", txnType, "count", n)
	return n, nil
}
