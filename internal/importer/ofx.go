package importer

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finimport/internal/id"
	"github.com/cleared-dev/finimport/internal/importerr"
	"github.com/cleared-dev/finimport/internal/model"
)

// OFXParser parses OFX/QFX bank and credit card statements.
type OFXParser struct {
	opts options
}

// NewOFXParser creates an OFX statement parser.
func NewOFXParser(opts ...Option) *OFXParser {
	return &OFXParser{opts: buildOptions(opts)}
}

const ofxAmountPrecision = 4

// Format returns the parser name.
func (p *OFXParser) Format() string { return "ofx" }

// CanParse accepts .ofx and .qfx files.
func (p *OFXParser) CanParse(name string) bool { return hasExt(name, ".ofx", ".qfx") }

// Parse reads an OFX statement and returns its transactions.
func (p *OFXParser) Parse(r io.Reader) ([]model.ParsedTransaction, error) {
	rep, err := p.ParseReport(r)
	if err != nil {
		return nil, err
	}
	return rep.Transactions, nil
}

// ParseReport reads an OFX statement. Transactions from every bank and
// credit card statement in the file are returned in file order.
func (p *OFXParser) ParseReport(r io.Reader) (*Report, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, importerr.Wrap(importerr.CodeParse, err, "reading ofx", nil)
	}

	resp, err := ofxgo.ParseResponse(bytes.NewReader(content))
	if err != nil {
		return nil, importerr.Wrap(importerr.CodeParse, err, "parsing ofx", map[string]any{"bytes": len(content)})
	}

	var lists []*ofxgo.TransactionList
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			lists = append(lists, stmt.BankTranList)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			lists = append(lists, stmt.BankTranList)
		}
	}

	rep := &Report{}
	row := 0
	for _, list := range lists {
		for _, txn := range list.Transactions {
			row++
			collect(rep, p.opts.logger, row, ofxRow(txn, row))
		}
	}
	return finish(rep, p.Format())
}

func ofxRow(txn ofxgo.Transaction, row int) rowResult {
	fitID := strings.TrimSpace(txn.FiTID.String())
	rawAmount := txn.TrnAmt.FloatString(2)

	date := txn.DtPosted.Time
	if date.IsZero() {
		date = txn.DtUser.Time
	}
	if date.IsZero() {
		return rowResult{skip: importerr.New(importerr.CodeInvalidDateFormat, "missing posted and user date",
			map[string]any{"row": row, "fitid": fitID, "rawAmount": rawAmount})}
	}

	amount := decimal.NewFromBigRat(&txn.TrnAmt.Rat, ofxAmountPrecision)
	if amount.IsZero() {
		return rowResult{}
	}

	desc := strings.TrimSpace(txn.Name.String())
	if desc == "" {
		desc = strings.TrimSpace(txn.Memo.String())
	}
	if desc == "" {
		desc = model.DefaultDescription
	}

	meta := map[string]string{
		"rawDate":   date.Format(isoDate),
		"rawAmount": rawAmount,
		"row":       strconv.Itoa(row),
		"source":    "ofx",
		"trnType":   txn.TrnType.String(),
	}
	if memo := strings.TrimSpace(txn.Memo.String()); memo != "" && memo != desc {
		meta["memo"] = memo
	}

	return rowResult{ok: true, txn: model.ParsedTransaction{
		ID:          id.New(),
		Date:        date.Format(isoDate),
		Amount:      amount.Abs(),
		Type:        model.TypeForAmount(amount),
		Description: desc,
		ExternalID:  fitID,
		Metadata:    meta,
	}}
}
