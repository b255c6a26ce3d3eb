package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/service"
)

// FindingKind classifies a consistency problem.
type FindingKind string

// Consistency problems reported by Check.
const (
	FindingOrphanTransaction FindingKind = "orphan_transaction"
	FindingBrokenTransfer    FindingKind = "broken_transfer"
	FindingDuplicateCategory FindingKind = "duplicate_category"
)

// Finding is one consistency problem in the persisted ledger.
type Finding struct {
	Kind    FindingKind
	Subject string
	Detail  string
}

// CheckReport is the result of Check.
type CheckReport struct {
	Findings     []Finding
	Accounts     int
	Transactions int
	Transfers    int
	Categories   int
}

// OK reports whether no problems were found.
func (r *CheckReport) OK() bool {
	return len(r.Findings) == 0
}

// Check verifies the persisted ledger: every transaction belongs to an
// existing account, every transfer has exactly two legs that mirror each
// other, and no two categories of one type share a name. progress, when set,
// is called after each transaction is examined.
func (e *Engine) Check(ctx context.Context, progress func(done, total int)) (*CheckReport, error) {
	accounts, err := e.storage.GetAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	txns, err := e.storage.GetTransactions(ctx, service.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	categories, err := e.storage.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	rep := &CheckReport{Accounts: len(accounts), Transactions: len(txns), Categories: len(categories)}

	known := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		known[a.ID] = true
	}
	legs := make(map[string][]model.Transaction)
	for i, t := range txns {
		if !known[t.AccountID] {
			rep.Findings = append(rep.Findings, Finding{
				Kind:    FindingOrphanTransaction,
				Subject: t.ID,
				Detail:  fmt.Sprintf("account %s does not exist", t.AccountID),
			})
		}
		if t.IsTransfer() {
			legs[t.TransferID] = append(legs[t.TransferID], t)
		}
		if progress != nil {
			progress(i+1, len(txns))
		}
	}

	rep.Transfers = len(legs)
	for _, id := range sortedKeys(legs) {
		if detail := transferProblem(legs[id]); detail != "" {
			rep.Findings = append(rep.Findings, Finding{Kind: FindingBrokenTransfer, Subject: id, Detail: detail})
		}
	}

	seen := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		key := string(c.Type) + ":" + strings.ToLower(strings.TrimSpace(c.Name))
		if first, dup := seen[key]; dup {
			rep.Findings = append(rep.Findings, Finding{
				Kind:    FindingDuplicateCategory,
				Subject: c.ID,
				Detail:  fmt.Sprintf("%s category %q duplicates %s", c.Type, c.Name, first.ID),
			})
			continue
		}
		seen[key] = c
	}

	return rep, nil
}

func transferProblem(legs []model.Transaction) string {
	if len(legs) != 2 {
		return fmt.Sprintf("has %d legs, want 2", len(legs))
	}
	a, b := legs[0], legs[1]
	switch {
	case a.Type == b.Type:
		return fmt.Sprintf("both legs are %s", a.Type)
	case !a.Amount.Neg().Equal(b.Amount):
		return fmt.Sprintf("leg amounts %s and %s do not cancel", a.Amount, b.Amount)
	case a.RelatedAccountID != b.AccountID || b.RelatedAccountID != a.AccountID:
		return "legs do not reference each other's accounts"
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
