package id

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// New returns an opaque unique transaction ID.
func New() string {
	return uuid.NewString()
}

// Fingerprint returns a stable hash of date, amount and description.
// Format: SHA256("{date}|{amount}|{description}") with the amount fixed to
// two places and the description lowercased and trimmed.
func Fingerprint(date string, amount decimal.Decimal, description string) string {
	desc := strings.ToLower(strings.TrimSpace(description))
	input := fmt.Sprintf("%s|%s|%s", date, amount.StringFixed(2), desc)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
