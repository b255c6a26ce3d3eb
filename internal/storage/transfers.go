package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// RecordTransfer writes the audit row for an executed transfer. The two legs
// are stored as ordinary transactions.
func (r repo) RecordTransfer(ctx context.Context, t *model.Transfer) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("%w: nil transfer", model.ErrInvalidTransfer)
	}
	if err := t.Validate(); err != nil {
		return err
	}

	_, err := r.exec(ctx, `
		INSERT INTO transfers (id, source_account_id, destination_account_id, amount, memo, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.SourceAccountID, t.DestinationAccountID, t.Amount, t.Memo, t.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to record transfer %s: %w", t.ID, err)
	}
	return nil
}

// GetTransfers returns every recorded transfer, newest first.
func (r repo) GetTransfers(ctx context.Context) ([]model.Transfer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, source_account_id, destination_account_id, amount, memo, timestamp
		FROM transfers ORDER BY timestamp DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transfers []model.Transfer
	for rows.Next() {
		var t model.Transfer
		if err := rows.Scan(&t.ID, &t.SourceAccountID, &t.DestinationAccountID, &t.Amount, &t.Memo, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}
	return transfers, nil
}
