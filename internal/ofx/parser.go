// Package ofx reads bank and card statement exports so their lines can be
// classified in bulk.
package ofx

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/calcbert/internal/model"
)

var (
	severityRe = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// An SGML opening tag at end of line that lost its closing bracket.
	openTagRe = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	// Leading "DD/MM " or "MM/DD " posting dates.
	leadingDateRe = regexp.MustCompile(`^\d{2}/\d{2}\s+`)
)

// Prefixes banks put in front of the merchant name.
var narrationPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"ACH DEBIT ",
	"ACH D- ",
	"NEFT-",
	"IMPS-",
	"POS ",
}

var genericNames = map[string]bool{
	"DEBIT":           true,
	"CREDIT":          true,
	"PURCHASE":        true,
	"PAYMENT":         true,
	"POS TRANSACTION": true,
	"CARD PURCHASE":   true,
}

// Statement is the parsed content of one export file.
type Statement struct {
	Accounts     []string
	Transactions []model.Transaction
}

// Descriptions returns the text of each transaction in file order, skipping
// lines that carry no text at all.
func (s *Statement) Descriptions() []string {
	out := make([]string, 0, len(s.Transactions))
	for _, tx := range s.Transactions {
		desc := strings.TrimSpace(tx.Description())
		if desc == "" {
			slog.Debug("Skipping transaction without description", "fitid", tx.ID)
			continue
		}
		out = append(out, desc)
	}
	return out
}

// normalizeSGML fixes formatting issues some banks ship in their exports.
func normalizeSGML(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRe.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagRe.ReplaceAllString(content, "$1>")
}

// ReadStatement parses an OFX/QFX export.
func ReadStatement(r io.Reader) (*Statement, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(normalizeSGML(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	stmt := &Statement{}
	accounts := make(map[string]struct{})
	add := func(acct string, list *ofxgo.TransactionList) {
		if acct != "" {
			accounts[acct] = struct{}{}
		}
		if list == nil {
			return
		}
		for _, tx := range list.Transactions {
			stmt.Transactions = append(stmt.Transactions, convert(tx, acct))
		}
	}

	for _, msg := range resp.Bank {
		if s, ok := msg.(*ofxgo.StatementResponse); ok {
			add(string(s.BankAcctFrom.AcctID), s.BankTranList)
		}
	}
	for _, msg := range resp.CreditCard {
		if s, ok := msg.(*ofxgo.CCStatementResponse); ok {
			add(string(s.CCAcctFrom.AcctID), s.BankTranList)
		}
	}

	for acct := range accounts {
		stmt.Accounts = append(stmt.Accounts, acct)
	}
	sort.Strings(stmt.Accounts)

	slog.Info("Parsed OFX file",
		"transactions", len(stmt.Transactions),
		"accounts", len(stmt.Accounts))
	return stmt, nil
}

func convert(tx ofxgo.Transaction, accountID string) model.Transaction {
	amount, _ := tx.TrnAmt.Float64()
	name := strings.TrimSpace(string(tx.Name))
	if name == "" {
		name = strings.TrimSpace(string(tx.Memo))
	}
	return model.Transaction{
		ID:           string(tx.FiTID),
		Date:         tx.DtPosted.Time,
		Name:         name,
		MerchantName: merchantName(tx),
		Amount:       amount,
		AccountID:    accountID,
		Type:         tx.TrnType.String(),
	}
}

// merchantName extracts the merchant from the payee or narration.
func merchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && (name == "" || genericNames[strings.ToUpper(name)]) {
		name = strings.TrimSpace(string(tx.Memo))
	}

	if payee, ok := upiPayee(name); ok {
		return payee
	}

	upper := strings.ToUpper(name)
	for _, prefix := range narrationPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	return strings.TrimSpace(leadingDateRe.ReplaceAllString(name, ""))
}

// upiPayee pulls the payee out of UPI narrations such as
// "UPI/412345678901/SWIGGY/swiggy@icici/Payment".
func upiPayee(name string) (string, bool) {
	if len(name) < 5 || !strings.EqualFold(name[:3], "UPI") || (name[3] != '/' && name[3] != '-') {
		return "", false
	}
	for _, part := range strings.Split(name[4:], string(name[3])) {
		part = strings.TrimSpace(part)
		if part != "" && strings.Trim(part, "0123456789") != "" {
			return part, true
		}
	}
	return "", false
}
