package importer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/cleared-dev/finimport/internal/id"
	"github.com/cleared-dev/finimport/internal/importerr"
	"github.com/cleared-dev/finimport/internal/model"
	"github.com/cleared-dev/finimport/internal/textnorm"
)

// PDFParser extracts transactions from text-based PDF bank statements.
type PDFParser struct {
	opts options
}

// NewPDFParser creates a PDF statement parser.
func NewPDFParser(opts ...Option) *PDFParser {
	return &PDFParser{opts: buildOptions(opts)}
}

var (
	// "05/01/2025 PIX ENVIADO FULANO 1.234,56 D"
	pdfLinePattern = regexp.MustCompile(
		`^(\d{1,2}/\d{1,2}(?:/\d{2}(?:\d{2})?)?)\s+(.+?)\s+(\(?-?(?:R\$\s?)?-?\d[\d.,]*[.,]\d{2}\)?-?)(?:\s*([DCdc]))?$`)

	fullDatePattern = regexp.MustCompile(`\b\d{1,2}/(\d{1,2})/(\d{4})\b`)
	yearPattern     = regexp.MustCompile(`\b(20\d{2})\b`)
)

// balanceWords mark running-balance lines, which share the transaction
// layout but are not transactions.
var balanceWords = []string{"saldo", "balance"}

// Format returns the parser name.
func (p *PDFParser) Format() string { return "pdf" }

// CanParse accepts .pdf files.
func (p *PDFParser) CanParse(name string) bool { return hasExt(name, ".pdf") }

// Parse reads a PDF statement and returns its transactions.
func (p *PDFParser) Parse(r io.Reader) ([]model.ParsedTransaction, error) {
	rep, err := p.ParseReport(r)
	if err != nil {
		return nil, err
	}
	return rep.Transactions, nil
}

// ParseReport reads a PDF statement, groups its text into lines and keeps
// the lines that look like transactions.
func (p *PDFParser) ParseReport(r io.Reader) (*Report, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, importerr.Wrap(importerr.CodeParse, err, "reading pdf", nil)
	}
	text, err := extractPDFText(content)
	if err != nil {
		return nil, importerr.Wrap(importerr.CodeParse, err, "extracting pdf text", map[string]any{"bytes": len(content)})
	}
	return p.parseStatementText(text)
}

func extractPDFText(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	rd, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= rd.NumPage(); i++ {
		page := rd.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, t := range row.Content {
				parts = append(parts, t.S)
			}
			b.WriteString(strings.Join(parts, " "))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// parseStatementText applies the line heuristics to already extracted text.
func (p *PDFParser) parseStatementText(text string) (*Report, error) {
	start := statementStart(text)

	rep := &Report{}
	row := 0
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.Join(strings.Fields(sc.Text()), " ")
		m := pdfLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if isBalanceLine(m[2]) {
			continue
		}
		row++
		collect(rep, p.opts.logger, row, pdfRow(m, start, row))
	}
	if err := sc.Err(); err != nil {
		return nil, importerr.Wrap(importerr.CodeParse, err, "scanning pdf text", nil)
	}
	return finish(rep, p.Format())
}

// period is where a statement starts. DD/MM dates in months before the
// start month belong to the following year.
type period struct {
	year  int
	month int
}

// statementStart guesses the period start from the first full date, else
// January of the first 20xx token. The zero period means unknown.
func statementStart(text string) period {
	if m := fullDatePattern.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			month = 1
		}
		return period{year: year, month: month}
	}
	if m := yearPattern.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		return period{year: year, month: 1}
	}
	return period{}
}

// yearFor returns the year of a DD/MM date in the given month.
func (p period) yearFor(month int) int {
	if month < p.month {
		return p.year + 1
	}
	return p.year
}

func isBalanceLine(desc string) bool {
	key := textnorm.Words(desc)
	for _, w := range balanceWords {
		if strings.Contains(key, w) {
			return true
		}
	}
	return false
}

func pdfRow(m []string, start period, row int) rowResult {
	rawDate, desc, rawAmount, marker := m[1], strings.TrimSpace(m[2]), m[3], strings.ToUpper(m[4])
	ctx := map[string]any{"row": row, "rawDate": rawDate, "rawAmount": rawAmount}

	date, err := pdfDate(rawDate, start)
	if err != nil {
		return rowResult{skip: importerr.Wrap(importerr.CodeInvalidDateFormat, err, "invalid date", ctx)}
	}
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return rowResult{skip: importerr.Wrap(importerr.CodeInvalidAmountFormat, err, "invalid amount", ctx)}
	}
	switch marker {
	case "D":
		amount = amount.Abs().Neg()
	case "C":
		amount = amount.Abs()
	}
	if amount.IsZero() {
		return rowResult{}
	}
	if desc == "" {
		desc = model.DefaultDescription
	}

	return rowResult{ok: true, txn: model.ParsedTransaction{
		ID:          id.New(),
		Date:        date,
		Amount:      amount.Abs(),
		Type:        model.TypeForAmount(amount),
		Description: desc,
		Metadata: map[string]string{
			"rawDate":   rawDate,
			"rawAmount": rawAmount,
			"row":       strconv.Itoa(row),
			"source":    "pdf",
		},
	}}
}

// pdfDate resolves DD/MM/YYYY, DD/MM/YY and DD/MM (against the statement
// period).
func pdfDate(raw string, start period) (string, error) {
	parts := strings.Split(raw, "/")
	switch len(parts) {
	case 3:
		y := parts[2]
		if len(y) == 2 {
			y = "20" + y
		}
		return calendarDate(y, parts[1], parts[0])
	case 2:
		if start.year == 0 {
			return "", fmt.Errorf("no statement year for %q", raw)
		}
		month, err := strconv.Atoi(parts[1])
		if err != nil {
			return "", fmt.Errorf("unrecognized date %q", raw)
		}
		return calendarDate(strconv.Itoa(start.yearFor(month)), parts[1], parts[0])
	default:
		return "", fmt.Errorf("unrecognized date %q", raw)
	}
}
