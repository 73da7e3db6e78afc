package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTypeForAmount(t *testing.T) {
	assert.Equal(t, TypeExpense, TypeForAmount(decimal.RequireFromString("-0.01")))
	assert.Equal(t, TypeIncome, TypeForAmount(decimal.RequireFromString("12.5")))
	assert.Equal(t, TypeIncome, TypeForAmount(decimal.Zero))
}

func TestSigned(t *testing.T) {
	txn := ParsedTransaction{Amount: decimal.RequireFromString("10.50"), Type: TypeExpense}
	assert.Equal(t, "-10.50", txn.Signed().StringFixed(2))

	txn.Type = TypeIncome
	assert.Equal(t, "10.50", txn.Signed().StringFixed(2))
}

func TestInvoiceCategoryValid(t *testing.T) {
	assert.Len(t, Categories, 16)
	for _, c := range Categories {
		assert.True(t, c.Valid(), "%s", c)
	}
	assert.False(t, InvoiceCategory("").Valid())
	assert.False(t, InvoiceCategory("GROCERY").Valid())
}
