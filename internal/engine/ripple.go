package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/ledger"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/service"
)

// ripple is the effect of removing and adding transactions on account
// balances and budget spending, keyed by account and budget ID.
type ripple struct {
	balances map[string]decimal.Decimal
	spending map[string]decimal.Decimal
}

func rippleOf(s *ledger.Snapshot, removed, added []model.Transaction) ripple {
	r := ripple{
		balances: make(map[string]decimal.Decimal),
		spending: make(map[string]decimal.Decimal),
	}
	apply := func(t model.Transaction, sign int64) {
		r.balances[t.AccountID] = r.balances[t.AccountID].Add(t.Amount.Mul(decimal.NewFromInt(sign)))
		if t.Type != model.TransactionTypeExpense || t.IsTransfer() {
			return
		}
		for _, b := range s.BudgetsForCategory(t.Category) {
			r.spending[b.ID] = r.spending[b.ID].Add(t.Magnitude().Mul(decimal.NewFromInt(sign)))
		}
	}
	for _, t := range removed {
		apply(t, -1)
	}
	for _, t := range added {
		apply(t, 1)
	}
	for id, delta := range r.balances {
		if delta.IsZero() {
			delete(r.balances, id)
		}
	}
	for id, delta := range r.spending {
		if delta.IsZero() {
			delete(r.spending, id)
		}
	}
	return r
}

// intents returns the balance and spending adjustments in a stable order.
func (r ripple) intents(at time.Time) []ledger.Intent {
	var out []ledger.Intent
	for _, id := range slices.Sorted(maps.Keys(r.balances)) {
		out = append(out, ledger.AdjustBalance{At: at, AccountID: id, Delta: r.balances[id]})
	}
	for _, id := range slices.Sorted(maps.Keys(r.spending)) {
		out = append(out, ledger.RecordBudgetSpending{At: at, BudgetID: id, Delta: r.spending[id]})
	}
	return out
}

// persist writes the absolute balances and spent amounts that result from
// applying r to s.
func (r ripple) persist(ctx context.Context, repo service.Repository, s *ledger.Snapshot) error {
	for _, id := range slices.Sorted(maps.Keys(r.balances)) {
		a, ok := s.Account(id)
		if !ok {
			continue
		}
		if err := repo.UpdateAccountBalance(ctx, id, a.Balance.Add(r.balances[id])); err != nil {
			return fmt.Errorf("failed to update balance of %s: %w", a.Name, err)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(r.spending)) {
		b, ok := s.Budget(id)
		if !ok {
			continue
		}
		if err := repo.UpdateBudgetSpent(ctx, id, b.SpentAmount.Add(r.spending[id])); err != nil {
			return fmt.Errorf("failed to update spending of %s budget: %w", b.Category, err)
		}
	}
	return nil
}
