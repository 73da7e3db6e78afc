package importer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finimport/internal/model"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"01/11/2025", "2025-11-01", false},
		{"1/2/2025", "2025-02-01", false},
		{"2025-11-01", "2025-11-01", false},
		{"2025-1-5", "2025-01-05", false},
		{"05-01-2025", "2025-01-05", false},
		{" 29/02/2024 ", "2024-02-29", false},
		{"29/02/2025", "", true},
		{"31/04/2025", "", true},
		{"13/13/2025", "", true},
		{"2025/11/01", "", true},
		{"01/11/25", "", true},
		{"", "", true},
		{"yesterday", "", true},
	}
	for _, tt := range tests {
		got, err := parseDate(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "parseDate(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "parseDate(%q)", tt.in)
		assert.Equal(t, tt.want, got, "parseDate(%q)", tt.in)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"100.50", "100.5"},
		{"-4.00", "-4"},
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1234,5", "1234.5"},
		{"R$ 1.234,56", "1234.56"},
		{"R$-89,90", "-89.9"},
		{"$1,000.00", "1000"},
		{"(100.50)", "-100.5"},
		{"(R$ 10,00)", "-10"},
		{"10,00-", "-10"},
		{"1.234.567", "1234567"},
		{"1,234,567", "1234567"},
		{"0,00", "0"},
		{" 42 ", "42"},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		require.NoError(t, err, "parseAmount(%q)", tt.in)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "parseAmount(%q) = %s, want %s", tt.in, got, tt.want)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "R$", "abc", "12a", "--5"} {
		_, err := parseAmount(in)
		assert.Error(t, err, "parseAmount(%q)", in)
	}
}

func TestInferType(t *testing.T) {
	pos := decimal.NewFromInt(10)
	neg := decimal.NewFromInt(-10)

	tests := []struct {
		typeValue string
		amount    decimal.Decimal
		want      model.TransactionType
	}{
		{"", pos, model.TypeIncome},
		{"", neg, model.TypeExpense},
		{"Débito", pos, model.TypeExpense},
		{"DEBIT", pos, model.TypeExpense},
		{"Despesa", pos, model.TypeExpense},
		{"Saída", pos, model.TypeExpense},
		{"Crédito", neg, model.TypeIncome},
		{"credit", neg, model.TypeIncome},
		{"Receita", neg, model.TypeIncome},
		{"Entrada", neg, model.TypeIncome},
		{"Transferência", neg, model.TypeExpense},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inferType(tt.typeValue, tt.amount), "inferType(%q, %s)", tt.typeValue, tt.amount)
	}
}
