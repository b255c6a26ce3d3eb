package alerts

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// Engine turns budgets and spending totals into alerts.
type Engine struct {
	dedup            *Deduplicator
	defaultThreshold decimal.Decimal
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultThreshold sets the percentage used for budgets without their own
// threshold. Non-positive values are ignored.
func WithDefaultThreshold(pct decimal.Decimal) Option {
	return func(e *Engine) {
		if pct.IsPositive() {
			e.defaultThreshold = pct
		}
	}
}

// NewEngine creates an alert engine backed by dedup. A nil dedup gets a fresh
// one with the default cooldown.
func NewEngine(dedup *Deduplicator, opts ...Option) *Engine {
	if dedup == nil {
		dedup = NewDeduplicator(DefaultCooldown, nil)
	}
	e := &Engine{
		dedup:            dedup,
		defaultThreshold: decimal.NewFromInt(model.DefaultAlertThreshold),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Deduplicator returns the cooldown history the engine records into.
func (e *Engine) Deduplicator() *Deduplicator {
	return e.dedup
}

// Evaluate checks every budget against spendingByCategory and returns the
// alerts that are due. Overspending takes priority over the threshold. Every
// returned alert is recorded, so an identical call within the cooldown returns
// nothing.
func (e *Engine) Evaluate(budgets []model.Budget, spendingByCategory map[string]decimal.Decimal) []model.Alert {
	var out []model.Alert
	for _, b := range budgets {
		alert, ok := e.candidate(b, spendingByCategory[b.Category])
		if !ok {
			continue
		}
		at, ok := e.dedup.claim(b.ID, alert.Type)
		if !ok {
			slog.Debug("Alert suppressed by cooldown", "budget_id", b.ID, "type", alert.Type)
			continue
		}
		alert.RaisedAt = at
		out = append(out, alert)
	}
	return out
}

func (e *Engine) candidate(b model.Budget, spending decimal.Decimal) (model.Alert, bool) {
	alert := model.Alert{
		BudgetID:        b.ID,
		Category:        b.Category,
		Currency:        b.Currency,
		CurrentSpending: spending,
		BudgetedAmount:  b.BudgetedAmount,
	}
	if spending.GreaterThan(b.BudgetedAmount) {
		alert.Type = model.AlertTypeOverspent
		return alert, true
	}
	threshold := b.ThresholdOr(e.defaultThreshold)
	if model.Percentage(spending, b.BudgetedAmount).GreaterThanOrEqual(threshold) {
		alert.Type = model.AlertTypeThreshold
		alert.Threshold = threshold
		return alert, true
	}
	return model.Alert{}, false
}

// ProcessTransaction evaluates budgets after txn was recorded and returns the
// alert for the budget tracking txn's category, if one is due. Only expense
// transactions whose category has a budget are considered, and only that
// budget's cooldown is touched.
func (e *Engine) ProcessTransaction(txn model.Transaction, budgets []model.Budget, spendingByCategory map[string]decimal.Decimal) (model.Alert, bool) {
	if txn.Type != model.TransactionTypeExpense {
		return model.Alert{}, false
	}
	var target *model.Budget
	for i := range budgets {
		if budgets[i].Category == txn.Category {
			target = &budgets[i]
			break
		}
	}
	if target == nil {
		return model.Alert{}, false
	}

	alerts := e.Evaluate([]model.Budget{*target}, spendingByCategory)
	if len(alerts) == 0 {
		return model.Alert{}, false
	}
	return alerts[0], true
}
