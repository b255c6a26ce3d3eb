package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/model"
)

func cascadeSnapshot() *Snapshot {
	return NewSnapshot(
		[]model.Account{account("a1", "Checking", model.AccountTypeChecking, "1000")},
		[]model.Transaction{
			expense("t1", "a1", "Food", "10"),
			expense("t2", "a1", "Groceries", "20"),
			expense("t3", "a1", "Food", "30"),
			income("t4", "a1", "Salary", "500"),
			expense("t5", "a1", "Foodie", "5"),
		},
		[]model.Category{
			category("c-food", "Food", model.CategoryTypeExpense),
			category("c-groc", "Groceries", model.CategoryTypeExpense),
			category("c-salary", "Salary", model.CategoryTypeIncome),
			{ID: "c-default", Name: "Housing", Type: model.CategoryTypeExpense, IsDefault: true},
		},
		[]model.Budget{
			budget("b-food", "Food", "200", "40"),
			budget("b-groc", "Groceries", "100", "20"),
		},
	)
}

func categoriesOf(s *Snapshot) map[string]string {
	out := map[string]string{}
	for _, txn := range s.Transactions() {
		out[txn.ID] = txn.Category
	}
	return out
}

func TestApplyCategoryRenamed_OnlyExactMatches(t *testing.T) {
	s := cascadeSnapshot()
	food, _ := s.Category("c-food")

	n, err := ApplyCategoryRenamed(s, CategoryUpdate{
		At:       testTime,
		ID:       "c-food",
		Previous: food,
		Updates:  model.CategoryInput{Name: "Dining"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"t1": "Dining",
		"t2": "Groceries",
		"t3": "Dining",
		"t4": "Salary",
		"t5": "Foodie",
	}, categoriesOf(n))

	b, _ := n.Budget("b-food")
	assert.Equal(t, "Dining", b.Category)
	g, _ := n.Budget("b-groc")
	assert.Equal(t, "Groceries", g.Category)

	c, _ := n.Category("c-food")
	assert.Equal(t, "Dining", c.Name)

	assert.Equal(t, "Food", categoriesOf(s)["t1"], "input snapshot must not change")
}

func TestApplyCategoryRenamed_IconOnlyDoesNotCascade(t *testing.T) {
	s := cascadeSnapshot()
	food, _ := s.Category("c-food")

	n, err := ApplyCategoryRenamed(s, CategoryUpdate{
		ID:       "c-food",
		Previous: food,
		Updates:  model.CategoryInput{Name: "Food", Icon: "pizza", Color: "#ff0000"},
	})
	require.NoError(t, err)

	c, _ := n.Category("c-food")
	assert.Equal(t, "pizza", c.Icon)
	assert.Equal(t, "#ff0000", c.Color)
	assert.Equal(t, s.Transactions(), n.Transactions())
	assert.Equal(t, s.Budgets(), n.Budgets())
}

func TestApplyCategoryRenamed_TypeChange(t *testing.T) {
	s := cascadeSnapshot()
	food, _ := s.Category("c-food")

	n, err := ApplyCategoryRenamed(s, CategoryUpdate{
		At:       testTime,
		ID:       "c-food",
		Previous: food,
		Updates:  model.CategoryInput{Name: "Reimbursements", Type: model.CategoryTypeIncome},
	})
	require.NoError(t, err)

	for _, id := range []string{"t1", "t3"} {
		txn, _ := n.Transaction(id)
		assert.Equal(t, "Reimbursements", txn.Category)
		assert.Equal(t, model.TransactionTypeIncome, txn.Type)
		assert.True(t, txn.Amount.IsPositive())
	}

	// -10 and -30 became +10 and +30.
	acct, _ := n.Account("a1")
	assert.True(t, acct.Balance.Equal(d("1080")), "balance: %s", acct.Balance)

	b, ok := n.Budget("b-food")
	require.True(t, ok)
	assert.Equal(t, "Reimbursements", b.Category)
	assert.Len(t, n.Budgets(), len(s.Budgets()))
}

func TestApplyCategoryRenamed_Duplicate(t *testing.T) {
	s := cascadeSnapshot()
	food, _ := s.Category("c-food")

	n, err := ApplyCategoryRenamed(s, CategoryUpdate{
		ID:       "c-food",
		Previous: food,
		Updates:  model.CategoryInput{Name: " groceries "},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCategoryDuplicate)
	assert.Same(t, s, n)
}

func TestDefaultCategoryIsReadOnly(t *testing.T) {
	s := cascadeSnapshot()
	housing, _ := s.Category("c-default")

	t.Run("rename", func(t *testing.T) {
		n, err := ApplyCategoryRenamed(s, CategoryUpdate{
			ID:       housing.ID,
			Previous: housing,
			Updates:  model.CategoryInput{Name: "Rent"},
		})
		assert.ErrorIs(t, err, ErrCategoryReadOnly)
		assert.Same(t, s, n)
	})

	t.Run("delete", func(t *testing.T) {
		n, err := ApplyCategoryDeleted(s, CategoryDeletion{ID: housing.ID, Category: housing})
		assert.ErrorIs(t, err, ErrCategoryReadOnly)
		assert.Same(t, s, n)

		var rule *RuleError
		require.ErrorAs(t, err, &rule)
		assert.Equal(t, CodeCategoryReadOnly, rule.Code)
		assert.Equal(t, "Housing", rule.Category)
	})
}

func TestApplyCategoryDeleted_WithReassignment(t *testing.T) {
	s := cascadeSnapshot()
	food, _ := s.Category("c-food")
	groceries, _ := s.Category("c-groc")

	n, err := ApplyCategoryDeleted(s, CategoryDeletion{
		At:           testTime,
		ID:           "c-food",
		Category:     food,
		Reassignment: &groceries,
	})
	require.NoError(t, err)

	for _, id := range []string{"t1", "t3"} {
		txn, _ := n.Transaction(id)
		assert.Equal(t, "Groceries", txn.Category)
		assert.Equal(t, model.TransactionTypeExpense, txn.Type)
	}
	b, ok := n.Budget("b-food")
	require.True(t, ok)
	assert.Equal(t, "Groceries", b.Category)

	_, ok = n.Category("c-food")
	assert.False(t, ok)
}

func TestApplyCategoryDeleted_WithoutReassignment(t *testing.T) {
	s := cascadeSnapshot()
	food, _ := s.Category("c-food")

	n, err := ApplyCategoryDeleted(s, CategoryDeletion{ID: "c-food", Category: food})
	require.NoError(t, err)

	cats := categoriesOf(n)
	assert.Equal(t, model.UncategorizedCategory, cats["t1"])
	assert.Equal(t, model.UncategorizedCategory, cats["t3"])
	assert.Equal(t, "Groceries", cats["t2"])

	_, ok := n.Budget("b-food")
	assert.False(t, ok)
	_, ok = n.Budget("b-groc")
	assert.True(t, ok)
}

func TestApplyAddCategory(t *testing.T) {
	s := cascadeSnapshot()

	n, err := ApplyAddCategory(s, category("c-new", "  Travel ", model.CategoryTypeExpense))
	require.NoError(t, err)
	c, ok := n.Category("c-new")
	require.True(t, ok)
	assert.Equal(t, "Travel", c.Name)

	// Same name, different type is allowed.
	_, err = ApplyAddCategory(s, category("c-food-income", "Food", model.CategoryTypeIncome))
	assert.NoError(t, err)

	same, err := ApplyAddCategory(s, category("c-dup", "FOOD", model.CategoryTypeExpense))
	assert.ErrorIs(t, err, ErrCategoryDuplicate)
	assert.Same(t, s, same)
}

func TestBudgetsFollow_SharedNameAcrossTypes(t *testing.T) {
	s := NewSnapshot(nil, nil,
		[]model.Category{
			category("inc-other", "Misc", model.CategoryTypeIncome),
			category("exp-other", "Misc", model.CategoryTypeExpense),
		},
		[]model.Budget{budget("b-misc", "Misc", "50", "0")},
	)
	inc, _ := s.Category("inc-other")

	n, err := ApplyCategoryDeleted(s, CategoryDeletion{ID: inc.ID, Category: inc})
	require.NoError(t, err)

	_, ok := n.Budget("b-misc")
	assert.True(t, ok, "budget belongs to the expense category of the same name")
}
