// Package money provides the fixed-point currency amount used across the
// ledger. Amounts carry two decimal places and a 3-letter currency code;
// arithmetic between mismatched currencies is rejected.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const scale = 2

var (
	// ErrCurrencyMismatch indicates an operation between two currencies.
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	// ErrInvalidCurrency indicates a malformed currency code.
	ErrInvalidCurrency = errors.New("money: currency must be a 3-letter code")
	// ErrDivideByZero indicates division by a zero divisor.
	ErrDivideByZero = errors.New("money: divide by zero")
)

var printer = message.NewPrinter(language.English)

// Money is an immutable amount in a single currency. The zero value is not
// usable; construct via New, FromString or Zero.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New builds a Money rounded to two decimal places (half-up).
func New(amount decimal.Decimal, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	return Money{amount: round(amount), currency: currency}, nil
}

// FromString parses a decimal string into a Money.
func FromString(value, currency string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", value, err)
	}
	return New(d, currency)
}

// FromFloat converts a float amount into a Money.
func FromFloat(value float64, currency string) (Money, error) {
	return New(decimal.NewFromFloat(value), currency)
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount exposes the underlying decimal.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the 3-letter currency code.
func (m Money) Currency() string { return m.currency }

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: round(m.amount.Add(other.amount)), currency: m.currency}, nil
}

// Subtract returns m - other.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: round(m.amount.Sub(other.amount)), currency: m.currency}, nil
}

// Multiply returns m scaled by factor, rounded half-up.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: round(m.amount.Mul(factor)), currency: m.currency}
}

// Divide returns m divided by divisor, rounded half-up.
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, ErrDivideByZero
	}
	return Money{amount: round(m.amount.Div(divisor)), currency: m.currency}, nil
}

// Negate flips the sign of the amount.
func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Abs returns the absolute amount.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs(), currency: m.currency}
}

// Equals reports amount equality; mismatched currencies are an error, never
// silently unequal.
func (m Money) Equals(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.Equal(other.amount), nil
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// Format renders the amount with thousands separators, e.g. "1,000.00".
func (m Money) Format() string {
	f, _ := m.amount.Round(scale).Float64()
	return printer.Sprintf("%.2f", f)
}

// String renders the amount with its currency code.
func (m Money) String() string {
	return m.currency + " " + m.amount.StringFixed(scale)
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}

// round applies the uniform half-up rounding at two decimal places.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(scale)
}
