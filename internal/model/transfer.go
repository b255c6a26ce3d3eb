package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is the intent to move funds between two accounts. It is never
// stored as such: executing it yields two linked transactions.
type Transfer struct {
	Timestamp            time.Time
	ID                   string
	SourceAccountID      string
	DestinationAccountID string
	Memo                 string
	Amount               decimal.Decimal
}

// OutTransactionID is the ID of the expense leg on the source account.
func (t Transfer) OutTransactionID() string {
	return t.ID + "-out"
}

// InTransactionID is the ID of the income leg on the destination account.
func (t Transfer) InTransactionID() string {
	return t.ID + "-in"
}

// Validate checks the transfer fields that do not depend on ledger state.
func (t Transfer) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransfer)
	}
	if t.SourceAccountID == "" || t.DestinationAccountID == "" {
		return fmt.Errorf("%w: source and destination accounts are required", ErrInvalidTransfer)
	}
	if t.SourceAccountID == t.DestinationAccountID {
		return fmt.Errorf("%w: source and destination must differ", ErrInvalidTransfer)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransfer)
	}
	return nil
}
