package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/ledger"
	"github.com/Veraticus/ledgerflow/internal/model"
)

const dateLayout = "2006-01-02"

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return amount, nil
}

// parseDate accepts YYYY-MM-DD; an empty string is the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// findAccount resolves an account by ID or case-insensitive name.
func findAccount(s *ledger.Snapshot, ref string) (model.Account, error) {
	if a, ok := s.Account(ref); ok {
		return a, nil
	}
	for _, a := range s.Accounts() {
		if strings.EqualFold(a.Name, strings.TrimSpace(ref)) {
			return a, nil
		}
	}
	return model.Account{}, fmt.Errorf("%w: %s", common.ErrAccountNotFound, ref)
}

// findCategory resolves a category by ID or by name within typ.
func findCategory(s *ledger.Snapshot, ref string, typ model.CategoryType) (model.Category, error) {
	if c, ok := s.Category(ref); ok {
		return c, nil
	}
	if c, ok := s.CategoryByName(ref, typ); ok {
		return c, nil
	}
	return model.Category{}, fmt.Errorf("%w: %s %s", common.ErrCategoryNotFound, typ, ref)
}

func accountName(s *ledger.Snapshot, id string) string {
	if a, ok := s.Account(id); ok {
		return a.Name
	}
	return id
}

func renderTransactions(s *ledger.Snapshot, txns []model.Transaction) string {
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		currency := model.DefaultCurrency
		if a, ok := s.Account(t.AccountID); ok {
			currency = a.Currency
		}
		rows = append(rows, []string{
			cli.SubtleStyle.Render(t.ID),
			t.Date.Format(dateLayout),
			accountName(s, t.AccountID),
			t.Category,
			t.Description,
			cli.FormatAmount(t.Amount, currency),
		})
	}
	return cli.RenderTable([]string{"ID", "DATE", "ACCOUNT", "CATEGORY", "DESCRIPTION", "AMOUNT"}, rows)
}

func formatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
	return t.Format("Jan 2, 2006")
}
