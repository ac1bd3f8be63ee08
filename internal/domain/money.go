package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxPriceDecimals bounds the precision accepted for prices and capital.
const MaxPriceDecimals = 4

// MaxQuantityDecimals bounds the precision accepted for share quantities.
const MaxQuantityDecimals = 8

const (
	// maxIntegerDigits bounds the magnitude of any amount or quantity.
	maxIntegerDigits = 15
	// maxScale bounds the fractional digits, trailing zeros included, of
	// any amount or quantity. Values past it are rejected without being
	// rescaled.
	maxScale = 32
)

// ParseAmount parses a non-negative decimal amount such as "100000" or
// "152.35". At most MaxPriceDecimals fractional digits are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount must be >= 0, got %s", d)
	}
	if !WithinBounds(d) {
		return decimal.Zero, fmt.Errorf("amount must have at most %d integer digits", maxIntegerDigits)
	}
	if !HasAtMostDecimals(d, MaxPriceDecimals) {
		return decimal.Zero, fmt.Errorf("amount must have at most %d decimal places", MaxPriceDecimals)
	}
	return d, nil
}

// WithinBounds reports whether d is small enough to do arithmetic on: at
// most maxIntegerDigits integer digits and maxScale fractional digits. It
// only inspects the coefficient and exponent.
func WithinBounds(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < -maxScale {
		return false
	}
	coef := d.Coefficient()
	digits := len(coef.Abs(coef).String())
	return int64(digits)+int64(exp) <= maxIntegerDigits
}

// HasAtMostDecimals reports whether d has no more than places fractional
// digits. Values outside WithinBounds are reported as too precise.
func HasAtMostDecimals(d decimal.Decimal, places int32) bool {
	if d.Exponent() >= -places {
		return true
	}
	if d.Exponent() < -maxScale {
		return false
	}
	return d.Equal(d.Truncate(places))
}

// ValidateAmount checks that d is within bounds and has at most places
// fractional digits, naming field in the returned *ValidationError.
func ValidateAmount(field string, d decimal.Decimal, places int32) error {
	if !WithinBounds(d) {
		return &ValidationError{
			Message: fmt.Sprintf("%s must have at most %d integer digits", field, maxIntegerDigits),
		}
	}
	if !HasAtMostDecimals(d, places) {
		return &ValidationError{
			Message: fmt.Sprintf("%s must have at most %d decimal places", field, places),
		}
	}
	return nil
}
