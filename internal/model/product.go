package model

// NormalizedProduct is an item description reduced to a comparable form.
type NormalizedProduct struct {
	NormalizedName string `json:"normalizedName"`
	OriginalName   string `json:"originalName"`
	ProductCode    string `json:"productCode,omitempty"`
}

// MatchResult reports whether two items are the same product.
type MatchResult struct {
	IsMatch    bool    `json:"isMatch"`
	Confidence float64 `json:"confidence"` // 0..1
}
