// Package model defines the core domain models used throughout the application.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies a financial account.
type AccountType string

// Account type constants.
const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
)

// AccountTypes lists every supported account type in display order.
var AccountTypes = []AccountType{
	AccountTypeChecking,
	AccountTypeSavings,
	AccountTypeCredit,
	AccountTypeInvestment,
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCredit, AccountTypeInvestment:
		return true
	}
	return false
}

// DefaultCurrency is used when an account or budget does not specify one.
const DefaultCurrency = "USD"

// Validation errors shared by the domain types.
var (
	ErrInvalidAccount     = errors.New("invalid account")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidBudget      = errors.New("invalid budget")
	ErrInvalidTransfer    = errors.New("invalid transfer")
)

// Account represents a user's financial account (bank account, credit card, ...).
// Balance only changes through transaction deltas or explicit adjustments.
type Account struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        string
	Name      string
	Type      AccountType
	Currency  string
	Balance   decimal.Decimal
}

// Validate checks the fields a caller must supply before the account is stored.
func (a *Account) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: nil account", ErrInvalidAccount)
	}
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidAccount)
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidAccount)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAccount, a.Type)
	}
	if len(a.Currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter ISO code, got %q", ErrInvalidAccount, a.Currency)
	}
	return nil
}

// IsCredit reports whether the account may run a negative balance.
func (a *Account) IsCredit() bool {
	return a.Type == AccountTypeCredit
}
