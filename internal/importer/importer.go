package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"

	"github.com/cleared-dev/finimport/internal/importerr"
	"github.com/cleared-dev/finimport/internal/model"
)

// Parser converts one statement file format into ParsedTransactions.
// Failures are *importerr.Error values.
type Parser interface {
	Format() string
	CanParse(name string) bool
	Parse(r io.Reader) ([]model.ParsedTransaction, error)
	ParseReport(r io.Reader) (*Report, error)
}

// Report is the full outcome of parsing one file.
type Report struct {
	Transactions []model.ParsedTransaction `json:"transactions"`
	Skipped      []RowSkip                 `json:"skipped,omitempty"`
}

// RowSkip records a row that was excluded because it failed to parse.
type RowSkip struct {
	Row int              `json:"row"`
	Err *importerr.Error `json:"error"`
}

// rowResult is the outcome of one row: a transaction, a skip with a reason,
// or neither (a row dropped silently, e.g. zero amount).
type rowResult struct {
	txn  model.ParsedTransaction
	ok   bool
	skip *importerr.Error
}

// Option configures a parser.
type Option func(*options)

type options struct {
	logger   zerolog.Logger
	fallback *charmap.Charmap
}

// WithLogger sets the logger used to report skipped rows.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFallbackEncoding sets the single-byte charset used for CSV input that
// is not valid UTF-8. Unknown names are ignored.
func WithFallbackEncoding(name string) Option {
	return func(o *options) {
		if cm, ok := LookupEncoding(name); ok {
			o.fallback = cm
		}
	}
}

// LookupEncoding resolves a charset name such as "windows-1252" or
// "iso-8859-1".
func LookupEncoding(name string) (*charmap.Charmap, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "windows-1252", "cp1252":
		return charmap.Windows1252, true
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, true
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, true
	}
	return nil, false
}

func buildOptions(opts []Option) options {
	o := options{logger: zerolog.Nop(), fallback: charmap.Windows1252}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// collect appends row outcomes to the report and logs skips.
func collect(rep *Report, logger zerolog.Logger, row int, res rowResult) {
	switch {
	case res.ok:
		rep.Transactions = append(rep.Transactions, res.txn)
	case res.skip != nil:
		ev := logger.Warn().Int("row", row).Str("code", string(res.skip.Code))
		for k, v := range res.skip.Context {
			if k != "row" {
				ev = ev.Interface(k, v)
			}
		}
		ev.Msg("skipping row")
		rep.Skipped = append(rep.Skipped, RowSkip{Row: row, Err: res.skip})
	}
}

// finish turns an empty report into NO_TRANSACTIONS_FOUND.
func finish(rep *Report, format string) (*Report, error) {
	if len(rep.Transactions) == 0 {
		return nil, importerr.New(importerr.CodeNoTransactions, "no transactions found", map[string]any{
			"format":  format,
			"skipped": len(rep.Skipped),
		})
	}
	return rep, nil
}

func hasExt(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// Registry holds parsers in preference order.
type Registry struct {
	parsers []Parser
	byName  map[string]Parser
}

// FileInfo describes a statement file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.byName[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.byName[key] = p
	r.parsers = append(r.parsers, p)
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.byName[strings.ToLower(format)]
}

// Detect returns the first registered parser that accepts name, or nil.
func (r *Registry) Detect(name string) Parser {
	for _, p := range r.parsers {
		if p.CanParse(name) {
			return p
		}
	}
	return nil
}

// Formats lists registered formats in preference order.
func (r *Registry) Formats() []string {
	names := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		names[i] = p.Format()
	}
	return names
}

// DefaultRegistry returns a new registry with all built-in statement parsers.
func DefaultRegistry(opts ...Option) *Registry {
	r := NewRegistry()
	r.Register(NewCSVParser(opts...))
	r.Register(NewOFXParser(opts...))
	r.Register(NewPDFParser(opts...))
	return r
}

// importDir is the subdirectory for statement files awaiting import.
const importDir = "import"

// processedDir is the subdirectory for imported files.
const processedDir = "import/processed"

// Scan returns files in <repoRoot>/import/ that some parser in reg accepts.
func Scan(repoRoot string, reg *Registry) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if reg.Detect(e.Name()) == nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
