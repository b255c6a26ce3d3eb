package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/ledger"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/service"
)

// TransferRequest asks to move money between two accounts.
type TransferRequest struct {
	Date                 time.Time // Defaults to now
	SourceAccountID      string
	DestinationAccountID string
	Memo                 string
	Amount               decimal.Decimal
}

// Transfer moves money between accounts. Both legs, both balances and the
// audit row are written in one storage transaction. The source needs enough
// funds unless it is a credit account.
func (e *Engine) Transfer(ctx context.Context, req TransferRequest) (model.Transfer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := model.Transfer{
		ID:                   e.newID(),
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               req.Amount,
		Memo:                 req.Memo,
		Timestamp:            req.Date.UTC(),
	}
	if req.Date.IsZero() {
		t.Timestamp = e.now().UTC()
	}
	if err := t.Validate(); err != nil {
		return model.Transfer{}, err
	}

	s := e.store.Snapshot()
	src, ok := s.Account(t.SourceAccountID)
	if !ok {
		return model.Transfer{}, fmt.Errorf("%w: source %s", common.ErrAccountNotFound, t.SourceAccountID)
	}
	dst, ok := s.Account(t.DestinationAccountID)
	if !ok {
		return model.Transfer{}, fmt.Errorf("%w: destination %s", common.ErrAccountNotFound, t.DestinationAccountID)
	}
	if !src.IsCredit() && src.Balance.LessThan(t.Amount) {
		return model.Transfer{}, fmt.Errorf("%w: %s has %s, transfer needs %s",
			common.ErrInsufficientFunds, src.Name, model.FormatMoney(src.Balance, src.Currency), model.FormatMoney(t.Amount, src.Currency))
	}

	out, in := ledger.TransferLegs(t, src.Name, dst.Name)
	_, err := e.commit(ctx, ledger.ExecuteTransfer{Transfer: t}, func(tx service.Transaction, _, _ *ledger.Snapshot) error {
		if err := tx.CreateTransaction(ctx, &out); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, &in); err != nil {
			return err
		}
		if err := tx.UpdateAccountBalance(ctx, src.ID, src.Balance.Sub(t.Amount)); err != nil {
			return err
		}
		if err := tx.UpdateAccountBalance(ctx, dst.ID, dst.Balance.Add(t.Amount)); err != nil {
			return err
		}
		return tx.RecordTransfer(ctx, &t)
	})
	if err != nil {
		slog.Error("transfer failed", "transfer_id", t.ID, "error", err)
		return model.Transfer{}, err
	}

	slog.Info("transfer executed", "transfer_id", t.ID, "from", src.Name, "to", dst.Name, "amount", t.Amount)
	return t, nil
}
