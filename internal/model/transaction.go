package model

import (
	"github.com/shopspring/decimal"
)

// TransactionType carries the direction of a transaction.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// DefaultDescription replaces an empty statement description.
const DefaultDescription = "Sem descrição"

// ParsedTransaction is one canonical record produced by a statement parser.
type ParsedTransaction struct {
	ID          string            `json:"id"`
	Date        string            `json:"date"`   // YYYY-MM-DD
	Amount      decimal.Decimal   `json:"amount"` // always >= 0, direction is in Type
	Type        TransactionType   `json:"type"`
	Description string            `json:"description"`
	ExternalID  string            `json:"externalId,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Signed returns the amount with the sign implied by Type.
func (t ParsedTransaction) Signed() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// TypeForAmount infers income/expense from the sign of a raw amount.
func TypeForAmount(amount decimal.Decimal) TransactionType {
	if amount.IsNegative() {
		return TypeExpense
	}
	return TypeIncome
}
