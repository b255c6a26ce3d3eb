package model

import (
	"fmt"
	"strings"
)

// CategoryType indicates whether a category is for income or expense.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
)

// Valid reports whether t is income or expense.
func (t CategoryType) Valid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// TransactionType returns the transaction type that categories of this type label.
func (t CategoryType) TransactionType() TransactionType {
	return TransactionType(t)
}

// Reserved category names.
const (
	// UncategorizedCategory labels transactions whose category was deleted without reassignment.
	UncategorizedCategory = "Uncategorized"
	// TransferCategory labels both legs of a transfer.
	TransferCategory = "Transfer"
)

// Category labels transactions and budgets. Default categories are read-only.
type Category struct {
	ID        string
	Name      string
	Icon      string
	Color     string
	Type      CategoryType
	IsDefault bool
}

// Validate ensures the category has the fields required for storage.
func (c *Category) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil category", ErrInvalidCategory)
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidCategory)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCategory, c.Type)
	}
	return nil
}

// SameName compares category names the way uniqueness is enforced:
// surrounding whitespace and letter case are ignored.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// CategoryInput carries the user-editable fields of a category.
type CategoryInput struct {
	Name  string
	Icon  string
	Color string
	Type  CategoryType
}

// Apply returns c with the non-empty input fields applied and the name trimmed.
func (in CategoryInput) Apply(c Category) Category {
	if name := strings.TrimSpace(in.Name); name != "" {
		c.Name = name
	}
	if in.Icon != "" {
		c.Icon = in.Icon
	}
	if in.Color != "" {
		c.Color = in.Color
	}
	if in.Type != "" {
		c.Type = in.Type
	}
	return c
}

func defaultCategory(slug, name, icon, color string, t CategoryType) Category {
	return Category{
		ID:        fmt.Sprintf("default-%s-%s", t, slug),
		Name:      name,
		Icon:      icon,
		Color:     color,
		Type:      t,
		IsDefault: true,
	}
}

// DefaultCategories returns the seeded, read-only categories.
func DefaultCategories() []Category {
	return []Category{
		defaultCategory("food", "Food", "silverware-fork-knife", "#FF6B6B", CategoryTypeExpense),
		defaultCategory("transportation", "Transportation", "car", "#FFA502", CategoryTypeExpense),
		defaultCategory("housing", "Housing", "home-city", "#1E90FF", CategoryTypeExpense),
		defaultCategory("utilities", "Utilities", "flash", "#3742FA", CategoryTypeExpense),
		defaultCategory("healthcare", "Healthcare", "heart-pulse", "#FF4757", CategoryTypeExpense),
		defaultCategory("entertainment", "Entertainment", "music-note", "#A29BFE", CategoryTypeExpense),
		defaultCategory("shopping", "Shopping", "shopping", "#2ED573", CategoryTypeExpense),
		defaultCategory("insurance", "Insurance", "shield-check", "#70A1FF", CategoryTypeExpense),
		defaultCategory("subscriptions", "Subscriptions", "repeat", "#FF6B81", CategoryTypeExpense),
		defaultCategory("transfer", TransferCategory, "swap-horizontal", "#57606F", CategoryTypeExpense),
		defaultCategory("other", "Other", "dots-horizontal", "#8395A7", CategoryTypeExpense),
		defaultCategory("salary", "Salary", "briefcase", "#34C759", CategoryTypeIncome),
		defaultCategory("bonus", "Bonus", "gift", "#FF9F1C", CategoryTypeIncome),
		defaultCategory("investments", "Investments", "chart-line", "#1E90FF", CategoryTypeIncome),
		defaultCategory("gifts", "Gifts", "hand-heart", "#FF6B6B", CategoryTypeIncome),
		defaultCategory("interest", "Interest", "percent", "#5352ED", CategoryTypeIncome),
		defaultCategory("refunds", "Refunds", "cash-refund", "#2ED573", CategoryTypeIncome),
		defaultCategory("sales", "Sales", "cart-arrow-down", "#FF4757", CategoryTypeIncome),
		defaultCategory("rental", "Rental Income", "home-currency-usd", "#3742FA", CategoryTypeIncome),
		defaultCategory("transfer", TransferCategory, "swap-horizontal", "#57606F", CategoryTypeIncome),
		defaultCategory("other", "Other", "dots-horizontal", "#8395A7", CategoryTypeIncome),
	}
}
