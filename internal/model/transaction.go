package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates whether money entered or left an account.
type TransactionType string

// Transaction type constants.
const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether t is income or expense.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction represents a single ledger entry against one account.
// Category is the category name, not an ID.
type Transaction struct {
	Date             time.Time
	ID               string
	AccountID        string
	Category         string
	Description      string
	Memo             string
	TransferID       string // Set on both legs of a transfer
	RelatedAccountID string // Counterpart account of a transfer leg
	Type             TransactionType
	Amount           decimal.Decimal // Income >= 0, expense <= 0
}

// IsTransfer reports whether the transaction is one leg of a transfer.
func (t *Transaction) IsTransfer() bool {
	return t.TransferID != ""
}

// Magnitude returns the absolute amount.
func (t *Transaction) Magnitude() decimal.Decimal {
	return t.Amount.Abs()
}

// NormalizeSign forces the amount sign to agree with the transaction type.
// Type is authoritative: expenses become -|amount|, income +|amount|.
func (t *Transaction) NormalizeSign() {
	if t.Type == TransactionTypeExpense {
		t.Amount = t.Amount.Abs().Neg()
		return
	}
	t.Amount = t.Amount.Abs()
}

// SignMatchesType reports whether the stored amount follows the sign convention.
func (t *Transaction) SignMatchesType() bool {
	switch t.Type {
	case TransactionTypeExpense:
		return t.Amount.Sign() <= 0
	case TransactionTypeIncome:
		return t.Amount.Sign() >= 0
	}
	return false
}

// Validate checks the fields a caller must supply before dispatching.
func (t *Transaction) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil transaction", ErrInvalidTransaction)
	}
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return fmt.Errorf("%w: missing account ID", ErrInvalidTransaction)
	}
	if strings.TrimSpace(t.Category) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidTransaction)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, t.Type)
	}
	if t.Amount.IsZero() {
		return fmt.Errorf("%w: amount must not be zero", ErrInvalidTransaction)
	}
	if !t.SignMatchesType() {
		return fmt.Errorf("%w: %s amount %s has the wrong sign", ErrInvalidTransaction, t.Type, t.Amount)
	}
	return nil
}
