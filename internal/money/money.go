// Package money holds decimal amount helpers shared by the import pipeline,
// the reconciliation matcher and the loan engine. Amounts are always raw
// decimals plus a currency code; formatting is the client's job.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Epsilon is the half-cent tolerance used when comparing amounts. Anything
// further apart than this is a different amount, not a rounding artifact.
var Epsilon = decimal.RequireFromString("0.005")

// Parse converts a statement-style numeric string into a decimal. It accepts
// plain machine formats ("-45.67"), thousand separators in either convention
// ("1,234.56" and "1.234,56"), a leading currency marker ("R$ 12,50"), and an
// explicit sign.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "+"))
	if strings.HasPrefix(s, "-") {
		neg = !neg
		s = s[1:]
	}

	// strip currency markers and inner spaces
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma > lastDot:
		// comma is the decimal separator, dots are thousands
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot > lastComma:
		// dot is the decimal separator, commas are thousands
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// Equal reports whether two amounts match within Epsilon.
func Equal(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}

// EqualAbs reports whether the magnitudes of two amounts match within Epsilon.
// The matcher compares an unsigned ledger amount against a signed bank amount.
func EqualAbs(a, b decimal.Decimal) bool {
	return Equal(a.Abs(), b.Abs())
}
