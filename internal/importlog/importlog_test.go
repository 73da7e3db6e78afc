package importlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finimport/internal/model"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testTxn() model.ParsedTransaction {
	return model.ParsedTransaction{
		ID:          "7c1f0c8e-0f5e-4a43-9a7e-3b1f4a0e2d11",
		Date:        "2025-01-15",
		Amount:      decimal.RequireFromString("89.9"),
		Type:        model.TypeExpense,
		Description: "FARMACIA SAO JOAO, CENTRO",
		ExternalID:  "OFX0003",
	}
}

func testEntry() Entry {
	return NewEntry(testTime, "statement.ofx", "ofx", testTxn(), "ext:OFX0003")
}

func TestNewEntry(t *testing.T) {
	e := testEntry()
	assert.Equal(t, "statement.ofx", e.File)
	assert.Equal(t, "ofx", e.Format)
	assert.Equal(t, testTxn().ID, e.TransactionID)
	assert.Equal(t, "2025-01-15", e.Date)
	assert.Equal(t, model.TypeExpense, e.Type)
	assert.Equal(t, "OFX0003", e.ExternalID)
	assert.Equal(t, "ext:OFX0003", e.DedupKey)
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	err := Append(dir, []Entry{testEntry()})
	require.NoError(t, err)

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "statement.ofx", entries[0].File)
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.File = "extrato.csv"
	e2.Format = "csv"
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "ofx", entries[0].Format)
	assert.Equal(t, "csv", entries[1].Format)

	data, err := os.ReadFile(filepath.Join(dir, "logs", "import-log.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header))
}

func TestRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := testEntry()
	require.NoError(t, Append(dir, []Entry{original}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.True(t, original.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, original.TransactionID, got.TransactionID)
	assert.True(t, original.Amount.Equal(got.Amount))
	assert.Equal(t, original.Type, got.Type)
	assert.Equal(t, original.Description, got.Description)
	assert.Equal(t, original.ExternalID, got.ExternalID)
	assert.Equal(t, original.DedupKey, got.DedupKey)
}

func TestRead_NotFound(t *testing.T) {
	dir := t.TempDir()
	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "import-log.csv"), []byte(Header+"\n"), 0o644))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestMarshalUnmarshal(t *testing.T) {
	row := MarshalEntry(testEntry())
	assert.Len(t, row, 10)
	assert.Equal(t, "2025-01-15T10:30:00Z", row[colTimestamp])
	assert.Equal(t, "89.90", row[colAmount])
	assert.Equal(t, "expense", row[colType])

	got, err := UnmarshalEntry(row)
	require.NoError(t, err)
	assert.Equal(t, "89.90", got.Amount.StringFixed(2))
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expected 10 fields")

	row := MarshalEntry(testEntry())
	row[colAmount] = "lots"
	_, err = UnmarshalEntry(row)
	assert.ErrorContains(t, err, "parsing amount")
}

func TestSeenKeys(t *testing.T) {
	dir := t.TempDir()
	seen, err := SeenKeys(dir)
	require.NoError(t, err)
	assert.Empty(t, seen)

	e2 := testEntry()
	e2.DedupKey = "fp:abc"
	e3 := testEntry()
	e3.DedupKey = ""
	require.NoError(t, Append(dir, []Entry{testEntry(), e2, e3}))

	seen, err = SeenKeys(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"ext:OFX0003": true, "fp:abc": true}, seen)
}

func TestAppend_CreatesDir(t *testing.T) {
	dir := t.TempDir()
	err := Append(dir, []Entry{testEntry()})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
