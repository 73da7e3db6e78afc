// Package textnorm folds free text (headers, merchant names, product
// descriptions) into comparable ASCII forms.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAccents removes combining marks: "Descrição" -> "Descricao".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Key lowercases, strips accents and drops every non-alphanumeric rune.
// "Data da Transação" -> "datadatransacao".
func Key(s string) string {
	s = strings.ToLower(StripAccents(s))
	return strings.Map(func(r rune) rune {
		if isAlnum(r) {
			return r
		}
		return -1
	}, s)
}

// Words lowercases, strips accents, turns punctuation into spaces and
// collapses runs of whitespace. "COCA-COLA   2L" -> "coca cola 2l".
func Words(s string) string {
	s = strings.ToLower(StripAccents(s))
	s = strings.Map(func(r rune) rune {
		if isAlnum(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Digits keeps only ASCII digits.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
