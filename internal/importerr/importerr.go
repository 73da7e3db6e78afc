// Package importerr defines the error vocabulary shared by every file parser.
package importerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code classifies an import failure.
type Code string

const (
	CodeParse                  Code = "PARSE_ERROR"
	CodeNoTransactions         Code = "NO_TRANSACTIONS_FOUND"
	CodeMissingRequiredColumns Code = "MISSING_REQUIRED_COLUMNS"
	CodeInvalidDateFormat      Code = "INVALID_DATE_FORMAT"
	CodeInvalidAmountFormat    Code = "INVALID_AMOUNT_FORMAT"
)

// Fatal reports whether the code aborts a whole file rather than one row.
func (c Code) Fatal() bool {
	return c != CodeInvalidDateFormat && c != CodeInvalidAmountFormat
}

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrParse                  = &Error{Code: CodeParse}
	ErrNoTransactions         = &Error{Code: CodeNoTransactions}
	ErrMissingRequiredColumns = &Error{Code: CodeMissingRequiredColumns}
	ErrInvalidDateFormat      = &Error{Code: CodeInvalidDateFormat}
	ErrInvalidAmountFormat    = &Error{Code: CodeInvalidAmountFormat}
)

// Error is a typed import failure with free-form diagnostic context.
type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
	Err     error          `json:"-"`
}

// New creates an Error.
func New(code Code, msg string, context map[string]any) *Error {
	return &Error{Code: code, Message: msg, Context: context}
}

// Wrap creates an Error that keeps err as its cause.
func Wrap(code Code, err error, msg string, context map[string]any) *Error {
	return &Error{Code: code, Message: msg, Context: context, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
