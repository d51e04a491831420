package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/pcarvalho/dindim/internal/model"
)

// OFXProvider reads OFX/QFX exports. OFX is already structured, so the
// provider flattens each statement transaction into a row under a synthetic
// date/title/amount header and lets the shared registry/mapper path handle
// the rest.
type OFXProvider struct{}

// FileType implements Provider.
func (p *OFXProvider) FileType() model.FileType {
	return model.FileTypeOFX
}

var ofxHeader = []string{"date", "title", "amount"}

var (
	severityFix = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagFix  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes common formatting issues in bank-produced OFX files:
// leading blank lines, mixed-case SEVERITY values, and SGML opening tags
// missing their closing bracket.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityFix.ReplaceAllStringFunc(content, strings.ToUpper)
	content = openTagFix.ReplaceAllString(content, "$1>")
	return content
}

// ExtractRows implements Provider.
func (p *OFXProvider) ExtractRows(_ context.Context, data []byte) (*Result, error) {
	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(data))))
	if err != nil {
		return nil, &ExtractionError{FileType: model.FileTypeOFX, Err: err}
	}

	var rows []model.RawRow

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		for _, txn := range stmt.BankTranList.Transactions {
			rows = append(rows, ofxRow(txn))
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		for _, txn := range stmt.BankTranList.Transactions {
			rows = append(rows, ofxRow(txn))
		}
	}

	return &Result{Header: ofxHeader, Rows: rows}, nil
}

func ofxRow(txn ofxgo.Transaction) model.RawRow {
	return model.NewRawRow(ofxHeader, []string{
		txn.DtPosted.Time.Format("2006-01-02"),
		ofxTitle(txn),
		txn.TrnAmt.Rat.FloatString(2),
	})
}

// ofxTitle picks the cleanest description available: PAYEE, then NAME, with
// MEMO as a fallback when NAME is a generic placeholder.
func ofxTitle(txn ofxgo.Transaction) string {
	if txn.Payee != nil && txn.Payee.Name != "" {
		return strings.TrimSpace(string(txn.Payee.Name))
	}

	name := strings.TrimSpace(string(txn.Name))
	if txn.Memo != "" && isGenericDescription(name) {
		return strings.TrimSpace(string(txn.Memo))
	}
	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
