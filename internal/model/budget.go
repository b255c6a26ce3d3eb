package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod is the time span a budget allotment covers.
type BudgetPeriod string

// Budget period constants.
const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Valid reports whether p is a known period.
func (p BudgetPeriod) Valid() bool {
	return p == BudgetPeriodMonthly || p == BudgetPeriodYearly
}

// DefaultAlertThreshold is the percentage used when a budget has no threshold.
const DefaultAlertThreshold = 80

var hundred = decimal.NewFromInt(100)

// Budget caps spending for one category. SpentAmount is a denormalized running
// total maintained by explicit updates, not recomputed from transactions.
type Budget struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ID             string
	Category       string
	Currency       string
	Period         BudgetPeriod
	BudgetedAmount decimal.Decimal
	SpentAmount    decimal.Decimal
	AlertThreshold decimal.NullDecimal // Percentage, 0-100
}

// ThresholdOr returns the budget's own alert threshold percentage, or fallback
// when it has none.
func (b *Budget) ThresholdOr(fallback decimal.Decimal) decimal.Decimal {
	if b.AlertThreshold.Valid && b.AlertThreshold.Decimal.IsPositive() {
		return b.AlertThreshold.Decimal
	}
	return fallback
}

// Validate checks the fields a caller must supply before the budget is stored.
func (b *Budget) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil budget", ErrInvalidBudget)
	}
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidBudget)
	}
	if strings.TrimSpace(b.Category) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidBudget)
	}
	if SameName(b.Category, UncategorizedCategory) {
		return fmt.Errorf("%w: budgets cannot target %q", ErrInvalidBudget, UncategorizedCategory)
	}
	if !b.Period.Valid() {
		return fmt.Errorf("%w: unknown period %q", ErrInvalidBudget, b.Period)
	}
	if !b.BudgetedAmount.IsPositive() {
		return fmt.Errorf("%w: budgeted amount must be positive", ErrInvalidBudget)
	}
	if b.AlertThreshold.Valid {
		t := b.AlertThreshold.Decimal
		if t.IsNegative() || t.GreaterThan(hundred) {
			return fmt.Errorf("%w: alert threshold must be between 0 and 100, got %s", ErrInvalidBudget, t)
		}
	}
	return nil
}

// BudgetProgress is a budget together with its derived figures.
type BudgetProgress struct {
	Budget
	ProgressPercentage decimal.Decimal // Capped at 100
	RemainingAmount    decimal.Decimal // Negative when overspent
	IsOverBudget       bool
}

// Progress derives the progress figures for the budget.
func (b *Budget) Progress() BudgetProgress {
	return BudgetProgress{
		Budget:             *b,
		ProgressPercentage: decimal.Min(b.SpentPercentage(), hundred),
		RemainingAmount:    b.BudgetedAmount.Sub(b.SpentAmount),
		IsOverBudget:       b.SpentAmount.GreaterThan(b.BudgetedAmount),
	}
}

// SpentPercentage returns spent / budgeted * 100 without clamping.
func (b *Budget) SpentPercentage() decimal.Decimal {
	return Percentage(b.SpentAmount, b.BudgetedAmount)
}

// Percentage returns part / whole * 100. A non-positive whole yields 100 when
// part is positive and 0 otherwise.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		if part.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
