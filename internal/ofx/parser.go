// Package ofx reads bank and credit card statements in OFX/QFX format and
// turns them into ledger transactions.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// An opening tag alone on its line with the closing bracket missing.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Statement is the transactions of one account in an OFX file.
type Statement struct {
	AccountID    string // Institution account number
	Currency     string
	Transactions []model.Transaction
	Credit       bool
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX file into one Statement per account. The
// transactions are ready for engine.ImportTransactions: IDs derive from the
// institution's FITID so re-importing a file is a no-op, and the type follows
// the amount sign.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var statements []Statement
	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		s := Statement{AccountID: string(stmt.BankAcctFrom.AcctID), Currency: stmt.CurDef.String()}
		if err := p.convertList(&s, stmt.BankTranList); err != nil {
			slog.Warn("Failed to process bank statement", "account", s.AccountID, "error", err)
			continue
		}
		statements = append(statements, s)
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		s := Statement{AccountID: string(stmt.CCAcctFrom.AcctID), Currency: stmt.CurDef.String(), Credit: true}
		if err := p.convertList(&s, stmt.BankTranList); err != nil {
			slog.Warn("Failed to process credit card statement", "account", s.AccountID, "error", err)
			continue
		}
		statements = append(statements, s)
	}

	total := 0
	for _, s := range statements {
		total += len(s.Transactions)
	}
	slog.Info("Parsed OFX file", "statements", len(statements), "total_transactions", total)

	return statements, nil
}

func (p *Parser) convertList(s *Statement, list *ofxgo.TransactionList) error {
	if list == nil {
		return nil
	}
	for _, ofxTx := range list.Transactions {
		tx, err := p.convertTransaction(ofxTx, s.AccountID)
		if err != nil {
			return err
		}
		s.Transactions = append(s.Transactions, tx)
	}
	return nil
}

// convertTransaction converts an OFX transaction to a ledger transaction.
// AccountID is left empty for the importer to fill.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, institutionAccount string) (model.Transaction, error) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(2))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: bad amount: %w", ofxTx.FiTID, err)
	}

	// OFX uses negative amounts for debits.
	typ := model.TransactionTypeIncome
	if amount.IsNegative() {
		typ = model.TransactionTypeExpense
	}

	tx := model.Transaction{
		ID:          TransactionID(institutionAccount, string(ofxTx.FiTID)),
		Date:        ofxTx.DtPosted.Time.UTC(),
		Description: p.extractMerchantName(ofxTx),
		Memo:        strings.TrimSpace(string(ofxTx.Memo)),
		Amount:      amount,
		Type:        typ,
		Category:    categoryFor(ofxTx),
	}
	if ofxTx.CheckNum != "" && tx.Memo == "" {
		tx.Memo = "Check " + string(ofxTx.CheckNum)
	}
	return tx, nil
}

// TransactionID is the ledger ID of an imported transaction.
func TransactionID(institutionAccount, fitID string) string {
	return fmt.Sprintf("ofx-%s-%s", institutionAccount, strings.TrimSpace(fitID))
}

// categoryFor guesses a default category from the OFX transaction type.
func categoryFor(tx ofxgo.Transaction) string {
	switch tx.TrnType {
	case ofxgo.TrnTypeInt:
		return "Interest"
	case ofxgo.TrnTypeDiv:
		return "Investments"
	}
	return model.UncategorizedCategory
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
