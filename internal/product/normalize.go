// Package product reduces invoice item descriptions to comparable names and
// decides when two items are the same product.
package product

import (
	"strings"
	"unicode/utf8"

	"github.com/cleared-dev/finimport/internal/model"
	"github.com/cleared-dev/finimport/internal/textnorm"
)

// NormalizeName lowercases, strips accents and punctuation, collapses
// whitespace and drops single-character tokens.
// "COCA-COLA   2L  PET" -> "coca cola 2l pet".
func NormalizeName(s string) string {
	words := strings.Fields(textnorm.Words(s))
	kept := words[:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) > 1 {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// Normalize builds the NormalizedProduct for an invoice item.
func Normalize(item model.ParsedInvoiceItem) model.NormalizedProduct {
	return model.NormalizedProduct{
		NormalizedName: NormalizeName(item.Description),
		OriginalName:   item.Description,
		ProductCode:    strings.TrimSpace(item.ProductCode),
	}
}

func tokens(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		set[w] = struct{}{}
	}
	return set
}
