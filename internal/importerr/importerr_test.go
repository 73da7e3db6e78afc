package importerr

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := New(CodeInvalidDateFormat, "bad date", map[string]any{"row": 3, "rawDate": "31/02/2025"})
	assert.Equal(t, "INVALID_DATE_FORMAT: bad date (rawDate=31/02/2025, row=3)", err.Error())
}

func TestErrorMessage_WithCause(t *testing.T) {
	err := Wrap(CodeParse, io.ErrUnexpectedEOF, "reading csv", nil)
	assert.Equal(t, "PARSE_ERROR: reading csv: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestErrorsIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("importing file: %w", New(CodeNoTransactions, "empty", nil))
	assert.ErrorIs(t, err, ErrNoTransactions)
	assert.NotErrorIs(t, err, ErrParse)
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", New(CodeMissingRequiredColumns, "", nil))
	assert.Equal(t, CodeMissingRequiredColumns, CodeOf(wrapped))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestCodeFatal(t *testing.T) {
	tests := []struct {
		code  Code
		fatal bool
	}{
		{CodeParse, true},
		{CodeNoTransactions, true},
		{CodeMissingRequiredColumns, true},
		{CodeInvalidDateFormat, false},
		{CodeInvalidAmountFormat, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.fatal, tt.code.Fatal(), "Fatal(%s)", tt.code)
	}
}
