package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finimport/internal/model"
	"github.com/cleared-dev/finimport/internal/textnorm"
)

const isoDate = "2006-01-02"

var (
	dayFirstSlash = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	yearFirstDash = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	dayFirstDash  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
)

var errEmptyAmount = errors.New("empty amount")

// currencyMarks are removed before amount parsing. Longer marks first.
var currencyMarks = []string{"R$", "US$", "BRL", "USD", "EUR", "$", "€", "£"}

// parseDate normalizes DD/MM/YYYY, YYYY-MM-DD and DD-MM-YYYY to YYYY-MM-DD
// and rejects impossible calendar dates.
func parseDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	var y, m, d string
	switch {
	case dayFirstSlash.MatchString(s):
		p := dayFirstSlash.FindStringSubmatch(s)
		d, m, y = p[1], p[2], p[3]
	case yearFirstDash.MatchString(s):
		p := yearFirstDash.FindStringSubmatch(s)
		y, m, d = p[1], p[2], p[3]
	case dayFirstDash.MatchString(s):
		p := dayFirstDash.FindStringSubmatch(s)
		d, m, y = p[1], p[2], p[3]
	default:
		return "", fmt.Errorf("unrecognized date %q", raw)
	}
	return calendarDate(y, m, d)
}

func calendarDate(y, m, d string) (string, error) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", fmt.Errorf("invalid calendar date %04d-%02d-%02d", year, month, day)
	}
	return t.Format(isoDate), nil
}

// parseAmount parses a locale-ambiguous money string into a signed decimal.
// The later of the last ',' and last '.' is the decimal separator; the
// other one is a thousands separator. Parentheses mean negative.
func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	for _, mark := range currencyMarks {
		s = strings.ReplaceAll(s, mark, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, errEmptyAmount
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		neg = !neg
		s = strings.TrimSuffix(s, "-")
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", raw, err)
	}
	if neg {
		amount = amount.Neg()
	}
	return amount, nil
}

var (
	incomeKeywords  = []string{"receita", "income", "credito", "credit", "entrada"}
	expenseKeywords = []string{"despesa", "expense", "debito", "debit", "saida"}
)

// inferType prefers an explicit type column value and falls back to the
// sign of the amount.
func inferType(typeValue string, amount decimal.Decimal) model.TransactionType {
	key := textnorm.Key(typeValue)
	if key != "" {
		for _, kw := range expenseKeywords {
			if strings.Contains(key, kw) {
				return model.TypeExpense
			}
		}
		for _, kw := range incomeKeywords {
			if strings.Contains(key, kw) {
				return model.TypeIncome
			}
		}
	}
	return model.TypeForAmount(amount)
}
