package product

import "github.com/cleared-dev/finimport/internal/model"

// DefaultThreshold is the token overlap at or above which two names are
// considered the same product.
const DefaultThreshold = 0.75

// Matcher compares invoice items. The zero value uses DefaultThreshold.
type Matcher struct {
	Threshold float64
}

// NewMatcher returns a Matcher with the given threshold; values outside
// (0, 1] fall back to DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold}
}

func (m *Matcher) threshold() float64 {
	if m == nil || m.Threshold <= 0 || m.Threshold > 1 {
		return DefaultThreshold
	}
	return m.Threshold
}

// Match reports whether a and b are the same product. Equal product codes
// always match with confidence 1. Otherwise the confidence is the Jaccard
// overlap of the normalized name tokens.
func (m *Matcher) Match(a, b model.ParsedInvoiceItem) model.MatchResult {
	return m.MatchNormalized(Normalize(a), Normalize(b))
}

// MatchNormalized is Match for already normalized products.
func (m *Matcher) MatchNormalized(a, b model.NormalizedProduct) model.MatchResult {
	if a.ProductCode != "" && a.ProductCode == b.ProductCode {
		return model.MatchResult{IsMatch: true, Confidence: 1.0}
	}
	sim := Similarity(a.NormalizedName, b.NormalizedName)
	return model.MatchResult{IsMatch: sim >= m.threshold(), Confidence: sim}
}

// Match compares two items with DefaultThreshold.
func Match(a, b model.ParsedInvoiceItem) model.MatchResult {
	return (&Matcher{}).Match(a, b)
}

// Similarity is |A ∩ B| / |A ∪ B| over the word sets of two normalized
// names. Two empty names have similarity 0.
func Similarity(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for w := range ta {
		if _, ok := tb[w]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}
