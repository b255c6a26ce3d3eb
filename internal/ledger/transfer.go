package ledger

import (
	"fmt"
	"slices"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// ApplyTransfer executes a transfer as one transition: the source balance drops
// by the amount, the destination balance rises by it, and two linked
// transactions are recorded. Amount, account existence and funds are the
// caller's responsibility; a non-positive amount leaves the snapshot unchanged.
func ApplyTransfer(s *Snapshot, t model.Transfer) *Snapshot {
	if !t.Amount.IsPositive() {
		return s
	}

	src, dst := s.accountIndex(t.SourceAccountID), s.accountIndex(t.DestinationAccountID)

	n := s.next()
	n.accounts = slices.Clone(s.accounts)
	if src >= 0 {
		n.accounts[src].Balance = n.accounts[src].Balance.Sub(t.Amount)
		n.accounts[src].UpdatedAt = t.Timestamp
	}
	if dst >= 0 {
		n.accounts[dst].Balance = n.accounts[dst].Balance.Add(t.Amount)
		n.accounts[dst].UpdatedAt = t.Timestamp
	}

	out, in := TransferLegs(t, accountName(s, src, t.SourceAccountID), accountName(s, dst, t.DestinationAccountID))

	n.transactions = make([]model.Transaction, 0, len(s.transactions)+2)
	n.transactions = append(n.transactions, in, out)
	n.transactions = append(n.transactions, s.transactions...)
	return n
}

// TransferLegs builds the expense leg on the source account and the income leg
// on the destination account.
func TransferLegs(t model.Transfer, sourceName, destinationName string) (out, in model.Transaction) {
	out = model.Transaction{
		ID:               t.OutTransactionID(),
		AccountID:        t.SourceAccountID,
		Amount:           t.Amount.Neg(),
		Category:         model.TransferCategory,
		Description:      fmt.Sprintf("Transfer to %s", destinationName),
		Date:             t.Timestamp,
		Type:             model.TransactionTypeExpense,
		Memo:             t.Memo,
		TransferID:       t.ID,
		RelatedAccountID: t.DestinationAccountID,
	}
	in = model.Transaction{
		ID:               t.InTransactionID(),
		AccountID:        t.DestinationAccountID,
		Amount:           t.Amount,
		Category:         model.TransferCategory,
		Description:      fmt.Sprintf("Transfer from %s", sourceName),
		Date:             t.Timestamp,
		Type:             model.TransactionTypeIncome,
		Memo:             t.Memo,
		TransferID:       t.ID,
		RelatedAccountID: t.SourceAccountID,
	}
	return out, in
}

func accountName(s *Snapshot, i int, fallback string) string {
	if i < 0 {
		return fallback
	}
	return s.accounts[i].Name
}
