// Package importlog keeps logs/import-log.csv, an append-only record of
// every transaction imported from a statement file.
package importlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finimport/internal/model"
)

// Entry is one row in the import log.
type Entry struct {
	Timestamp     time.Time
	File          string
	Format        string
	TransactionID string
	Date          string
	Amount        decimal.Decimal
	Type          model.TransactionType
	Description   string
	ExternalID    string
	DedupKey      string
}

// Header is the CSV header for import-log.csv.
const Header = "timestamp,file,format,transaction_id,date,amount,type,description,external_id,dedup_key"

const (
	numFields        = 10
	logDir           = "logs"
	logFile          = "logs/import-log.csv"
	colTimestamp     = 0
	colFile          = 1
	colFormat        = 2
	colTransactionID = 3
	colDate          = 4
	colAmount        = 5
	colType          = 6
	colDescription   = 7
	colExternalID    = 8
	colDedupKey      = 9
)

// NewEntry builds the log row for a transaction imported from file.
func NewEntry(ts time.Time, file, format string, t model.ParsedTransaction, dedupKey string) Entry {
	return Entry{
		Timestamp:     ts,
		File:          file,
		Format:        format,
		TransactionID: t.ID,
		Date:          t.Date,
		Amount:        t.Amount,
		Type:          t.Type,
		Description:   t.Description,
		ExternalID:    t.ExternalID,
		DedupKey:      dedupKey,
	}
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colFile] = e.File
	row[colFormat] = e.Format
	row[colTransactionID] = e.TransactionID
	row[colDate] = e.Date
	row[colAmount] = e.Amount.StringFixed(2)
	row[colType] = string(e.Type)
	row[colDescription] = e.Description
	row[colExternalID] = e.ExternalID
	row[colDedupKey] = e.DedupKey
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return Entry{
		Timestamp:     ts,
		File:          record[colFile],
		Format:        record[colFormat],
		TransactionID: record[colTransactionID],
		Date:          record[colDate],
		Amount:        amount,
		Type:          model.TransactionType(record[colType]),
		Description:   record[colDescription],
		ExternalID:    record[colExternalID],
		DedupKey:      record[colDedupKey],
	}, nil
}

// Append writes entries to <repoRoot>/logs/import-log.csv, creating the file and header if needed.
func Append(repoRoot string, entries []Entry) error {
	dir := filepath.Join(repoRoot, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(repoRoot, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <repoRoot>/logs/import-log.csv.
// Returns an empty slice if the file does not exist.
func Read(repoRoot string) ([]Entry, error) {
	path := filepath.Join(repoRoot, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// SeenKeys returns the dedup keys of every logged transaction.
func SeenKeys(repoRoot string) (map[string]bool, error) {
	entries, err := Read(repoRoot)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.DedupKey != "" {
			seen[e.DedupKey] = true
		}
	}
	return seen, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
