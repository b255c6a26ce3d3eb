package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AlertType distinguishes the budget conditions that raise an alert.
type AlertType string

// Alert type constants.
const (
	AlertTypeThreshold AlertType = "threshold"
	AlertTypeOverspent AlertType = "overspent"
)

// Alert reports that a budget crossed its threshold or was overspent.
// Alerts are informational; raising one changes no ledger data.
type Alert struct {
	RaisedAt        time.Time       `json:"raised_at"`
	BudgetID        string          `json:"budget_id"`
	Category        string          `json:"category"`
	Currency        string          `json:"currency"`
	Type            AlertType       `json:"type"`
	CurrentSpending decimal.Decimal `json:"current_spending"`
	BudgetedAmount  decimal.Decimal `json:"budgeted_amount"`
	Threshold       decimal.Decimal `json:"threshold,omitempty"`
}

// Percentage is current spending as a percentage of the budgeted amount.
func (a Alert) Percentage() decimal.Decimal {
	return Percentage(a.CurrentSpending, a.BudgetedAmount)
}

// Title is the short headline shown to the user.
func (a Alert) Title() string {
	if a.Type == AlertTypeOverspent {
		return fmt.Sprintf("%s Budget Exceeded", a.Category)
	}
	return fmt.Sprintf("%s Budget Alert", a.Category)
}

// Message is the alert body.
func (a Alert) Message() string {
	if a.Type == AlertTypeOverspent {
		return fmt.Sprintf("You've overspent by %s", FormatMoney(a.CurrentSpending.Sub(a.BudgetedAmount), a.Currency))
	}
	return fmt.Sprintf("You've reached %s%% of your budget limit", a.Percentage().Round(0).String())
}
