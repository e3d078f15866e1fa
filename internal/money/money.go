// Package money provides a currency-tagged decimal amount.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in a single currency.
// The zero value is a zero amount with no currency; it can be added to
// any Money without a mismatch.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// MismatchError reports arithmetic across two different currencies.
type MismatchError struct {
	A, B string
}

func (e MismatchError) Error() string {
	return fmt.Sprintf("currency mismatch: %s vs %s", e.A, e.B)
}

// New returns amount tagged with currency.
func New(amount decimal.Decimal, currency string) Money {
	return Money{amount: amount, currency: currency}
}

// FromString parses a decimal string into a Money.
func FromString(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return Money{amount: d, currency: currency}, nil
}

// Zero returns a zero amount in currency.
func Zero(currency string) Money {
	return Money{currency: currency}
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency code, or "" for the zero value.
func (m Money) Currency() string { return m.currency }

// Add returns m + other. The currencies must match; a zero-currency
// operand takes on the other's currency.
func (m Money) Add(other Money) (Money, error) {
	cur, err := mergeCurrency(m.currency, other.currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: cur}, nil
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// MulInt returns m scaled by n. Used for sign adjustment.
func (m Money) MulInt(n int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(n)), currency: m.currency}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsPositive reports whether the amount is > 0.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// IsNegative reports whether the amount is < 0.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Equal reports exact decimal equality in the same currency.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String formats like "100.00 USD".
func (m Money) String() string {
	if m.currency == "" {
		return m.amount.StringFixed(2)
	}
	return m.amount.StringFixed(2) + " " + m.currency
}

func mergeCurrency(a, b string) (string, error) {
	switch {
	case a == "":
		return b, nil
	case b == "" || a == b:
		return a, nil
	default:
		return "", MismatchError{A: a, B: b}
	}
}
