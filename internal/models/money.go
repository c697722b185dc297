package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ParseDecimal parses a plain decimal string ("45.30", "-12").
func ParseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount string '%s': %w", s, err)
	}
	return d, nil
}

// SignedAmount returns the amount as a signed value: positive for credit,
// negative for debit.
func SignedAmount(amount decimal.Decimal, dir Direction) decimal.Decimal {
	if dir == Debit {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}
