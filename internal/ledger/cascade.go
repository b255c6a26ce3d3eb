package ledger

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// CategoryUpdate is the intent to edit a category. Previous is the category as
// the caller last saw it.
type CategoryUpdate struct {
	At       time.Time
	ID       string
	Previous model.Category
	Updates  model.CategoryInput
}

// CategoryDeletion is the intent to remove a category. When Reassignment is set
// its type must match Category's; the caller enforces that.
type CategoryDeletion struct {
	At           time.Time
	Reassignment *model.Category
	ID           string
	Category     model.Category
}

// ApplyAddCategory appends a category, rejecting a name already used by another
// category of the same type.
func ApplyAddCategory(s *Snapshot, c model.Category) (*Snapshot, error) {
	c.Name = strings.TrimSpace(c.Name)
	if other, ok := s.CategoryByName(c.Name, c.Type); ok && other.ID != c.ID {
		return s, &RuleError{Code: CodeCategoryDuplicate, Category: c.Name}
	}
	n := s.next()
	n.categories = append(slices.Clone(s.categories), c)
	return n, nil
}

// ApplyCategoryRenamed edits a category and cascades a name or type change into
// the transactions and budgets that reference it. Icon or color edits alone do
// not touch transactions or budgets.
//
// Transactions move when their category equals the old name and their type
// equals the old category type. When the type changes their amount sign is
// flipped to match, and the owning account balances absorb the difference.
func ApplyCategoryRenamed(s *Snapshot, u CategoryUpdate) (*Snapshot, error) {
	prev := u.Previous
	idx := s.categoryIndex(u.ID)
	if idx >= 0 {
		prev = s.categories[idx]
	}
	if prev.IsDefault || u.Previous.IsDefault {
		return s, &RuleError{Code: CodeCategoryReadOnly, Category: prev.Name}
	}

	updated := u.Updates.Apply(prev)
	updated.ID = u.ID
	updated.IsDefault = false
	for _, c := range s.categories {
		if c.ID != updated.ID && c.Type == updated.Type && model.SameName(c.Name, updated.Name) {
			return s, &RuleError{Code: CodeCategoryDuplicate, Category: updated.Name}
		}
	}

	n := s.next()
	if idx >= 0 {
		n.categories = slices.Clone(s.categories)
		n.categories[idx] = updated
	}

	renamed := updated.Name != prev.Name
	retyped := updated.Type != prev.Type
	if !renamed && !retyped {
		return n, nil
	}

	deltas := make(map[string]decimal.Decimal)
	n.transactions = rewriteTransactions(s.transactions, prev, func(t *model.Transaction) {
		t.Category = updated.Name
		if retyped {
			old := t.Amount
			t.Type = updated.Type.TransactionType()
			t.NormalizeSign()
			deltas[t.AccountID] = deltas[t.AccountID].Add(t.Amount.Sub(old))
		}
	})
	n.accounts = applyBalanceDeltas(s.accounts, deltas, u.At)

	if renamed && budgetsFollow(s, prev) {
		n.budgets = rewriteBudgets(s.budgets, prev.Name, updated.Name, u.At)
	}
	return n, nil
}

// ApplyCategoryDeleted removes a category. With a reassignment target, linked
// transactions and budgets move to it. Without one, linked transactions are
// labelled Uncategorized and linked budgets are removed.
func ApplyCategoryDeleted(s *Snapshot, d CategoryDeletion) (*Snapshot, error) {
	cat := d.Category
	idx := s.categoryIndex(d.ID)
	if idx >= 0 {
		cat = s.categories[idx]
	}
	if cat.IsDefault || d.Category.IsDefault {
		return s, &RuleError{Code: CodeCategoryReadOnly, Category: cat.Name}
	}

	n := s.next()
	if idx >= 0 {
		n.categories = slices.Delete(slices.Clone(s.categories), idx, idx+1)
	}

	target := model.UncategorizedCategory
	if d.Reassignment != nil {
		target = d.Reassignment.Name
	}
	n.transactions = rewriteTransactions(s.transactions, cat, func(t *model.Transaction) {
		t.Category = target
	})

	if budgetsFollow(s, cat) {
		if d.Reassignment != nil {
			n.budgets = rewriteBudgets(s.budgets, cat.Name, target, d.At)
		} else {
			n.budgets = removeBudgets(s.budgets, cat.Name)
		}
	}
	return n, nil
}

// budgetsFollow reports whether budgets naming c belong to it. Budgets track
// expense spending, so an income category only owns them when no other
// category shares its name.
func budgetsFollow(s *Snapshot, c model.Category) bool {
	if c.Type == model.CategoryTypeExpense {
		return true
	}
	return !slices.ContainsFunc(s.categories, func(o model.Category) bool {
		return o.ID != c.ID && o.Type != c.Type && o.Name == c.Name
	})
}

func rewriteTransactions(in []model.Transaction, c model.Category, edit func(*model.Transaction)) []model.Transaction {
	matches := func(t model.Transaction) bool {
		return t.Category == c.Name && t.Type == c.Type.TransactionType()
	}
	if !slices.ContainsFunc(in, matches) {
		return in
	}
	out := slices.Clone(in)
	for i := range out {
		if matches(out[i]) {
			edit(&out[i])
		}
	}
	return out
}

func rewriteBudgets(in []model.Budget, from, to string, at time.Time) []model.Budget {
	if !slices.ContainsFunc(in, func(b model.Budget) bool { return b.Category == from }) {
		return in
	}
	out := slices.Clone(in)
	for i := range out {
		if out[i].Category == from {
			out[i].Category = to
			if !at.IsZero() {
				out[i].UpdatedAt = at
			}
		}
	}
	return out
}

func removeBudgets(in []model.Budget, category string) []model.Budget {
	if !slices.ContainsFunc(in, func(b model.Budget) bool { return b.Category == category }) {
		return in
	}
	return slices.DeleteFunc(slices.Clone(in), func(b model.Budget) bool { return b.Category == category })
}

func applyBalanceDeltas(in []model.Account, deltas map[string]decimal.Decimal, at time.Time) []model.Account {
	if len(deltas) == 0 {
		return in
	}
	out := slices.Clone(in)
	for i := range out {
		if delta, ok := deltas[out[i].ID]; ok && !delta.IsZero() {
			out[i].Balance = out[i].Balance.Add(delta)
			if !at.IsZero() {
				out[i].UpdatedAt = at
			}
		}
	}
	return out
}
