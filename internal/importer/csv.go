package importer

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/cleared-dev/finimport/internal/id"
	"github.com/cleared-dev/finimport/internal/importerr"
	"github.com/cleared-dev/finimport/internal/model"
	"github.com/cleared-dev/finimport/internal/textnorm"
)

// CSVParser parses generic bank statement CSV exports with fuzzy,
// locale-tolerant header matching.
type CSVParser struct {
	opts options
}

// NewCSVParser creates a CSV statement parser.
func NewCSVParser(opts ...Option) *CSVParser {
	return &CSVParser{opts: buildOptions(opts)}
}

const (
	sniffLines = 5
	utf8BOM    = "\ufeff"
)

// ColumnMapping holds the resolved column index of each transaction field.
// Optional fields are -1 when absent.
type ColumnMapping struct {
	Date        int
	Amount      int
	Description int
	Type        int
	ExternalID  int
}

var (
	dateHeaders        = []string{"data", "date", "dt", "data da transacao"}
	amountHeaders      = []string{"valor", "amount", "value", "montante", "vlr"}
	descriptionHeaders = []string{"descricao", "description", "historico", "desc"}
	typeHeaders        = []string{"tipo", "type", "categoria", "credit debit", "debit credit", "credito debito", "debito credito"}
	externalIDHeaders  = []string{"identificador", "id", "transaction id", "fitid"}
)

// Format returns the parser name.
func (p *CSVParser) Format() string { return "csv" }

// CanParse accepts .csv files.
func (p *CSVParser) CanParse(name string) bool { return hasExt(name, ".csv") }

// Parse reads a CSV statement and returns its transactions.
func (p *CSVParser) Parse(r io.Reader) ([]model.ParsedTransaction, error) {
	rep, err := p.ParseReport(r)
	if err != nil {
		return nil, err
	}
	return rep.Transactions, nil
}

// ParseReport reads a CSV statement and returns transactions plus the rows
// that were skipped.
func (p *CSVParser) ParseReport(r io.Reader) (*Report, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, importerr.Wrap(importerr.CodeParse, err, "reading csv", nil)
	}
	text, err := decodeText(raw, p.opts.fallback)
	if err != nil {
		return nil, importerr.Wrap(importerr.CodeParse, err, "decoding csv", nil)
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = detectDelimiter(text)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, importerr.Wrap(importerr.CodeParse, err, "reading csv", nil)
	}
	if len(records) == 0 {
		return nil, importerr.New(importerr.CodeNoTransactions, "empty file", map[string]any{"format": "csv"})
	}

	cols, err := resolveColumns(records[0])
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	for i, rec := range records[1:] {
		row := i + 1
		collect(rep, p.opts.logger, row, parseCSVRow(cols, rec, row))
	}
	return finish(rep, p.Format())
}

// decodeText strips a UTF-8 BOM and decodes input that is not valid UTF-8
// with the fallback charset.
func decodeText(raw []byte, fallback *charmap.Charmap) (string, error) {
	if utf8.Valid(raw) {
		return strings.TrimPrefix(string(raw), utf8BOM), nil
	}
	out, err := fallback.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// detectDelimiter counts ',', ';' and '\t' over the first non-empty lines.
// Ties go to the earlier candidate, so empty input yields ','.
func detectDelimiter(text string) rune {
	candidates := []rune{',', ';', '\t'}
	counts := make([]int, len(candidates))

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	seen := 0
	for seen < sniffLines && sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		seen++
		for i, c := range candidates {
			counts[i] += strings.Count(line, string(c))
		}
	}

	best := 0
	for i := range candidates {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return candidates[best]
}

// resolveColumns maps headers to fields. Each field takes the leftmost
// unclaimed header whose normalized form contains one of its keywords.
func resolveColumns(header []string) (ColumnMapping, error) {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = textnorm.Key(h)
	}
	claimed := make([]bool, len(header))

	find := func(candidates []string) int {
		for i, k := range keys {
			if claimed[i] || k == "" {
				continue
			}
			for _, c := range candidates {
				if strings.Contains(k, textnorm.Key(c)) {
					claimed[i] = true
					return i
				}
			}
		}
		return -1
	}

	cols := ColumnMapping{}
	cols.Date = find(dateHeaders)
	cols.Amount = find(amountHeaders)
	cols.Description = find(descriptionHeaders)
	cols.Type = find(typeHeaders)
	cols.ExternalID = find(externalIDHeaders)

	var missing []string
	if cols.Date < 0 {
		missing = append(missing, "date")
	}
	if cols.Amount < 0 {
		missing = append(missing, "amount")
	}
	if cols.Description < 0 {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return cols, importerr.New(importerr.CodeMissingRequiredColumns,
			"required columns not found", map[string]any{
				"missing": strings.Join(missing, ","),
				"headers": strings.Join(header, "|"),
			})
	}
	return cols, nil
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func parseCSVRow(cols ColumnMapping, rec []string, row int) rowResult {
	rawDate := field(rec, cols.Date)
	rawAmount := field(rec, cols.Amount)
	desc := field(rec, cols.Description)
	if rawDate == "" && rawAmount == "" && desc == "" {
		return rowResult{}
	}

	ctx := map[string]any{"row": row, "rawDate": rawDate, "rawAmount": rawAmount}

	date, err := parseDate(rawDate)
	if err != nil {
		return rowResult{skip: importerr.Wrap(importerr.CodeInvalidDateFormat, err, "invalid date", ctx)}
	}
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return rowResult{skip: importerr.Wrap(importerr.CodeInvalidAmountFormat, err, "invalid amount", ctx)}
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
		Type:        inferType(field(rec, cols.Type), amount),
		Description: desc,
		ExternalID:  field(rec, cols.ExternalID),
		Metadata: map[string]string{
			"rawDate":   rawDate,
			"rawAmount": rawAmount,
			"row":       strconv.Itoa(row),
			"source":    "csv",
		},
	}}
}
