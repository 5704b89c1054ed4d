// Package money converts statement currency strings to and from integer cents.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrAmount is returned for text that is not a whole number of cents.
var ErrAmount = errors.New("invalid currency amount")

// ParseCents converts a string like "1,234.56" or "$5.00" to cents.
func ParseCents(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.ReplaceAll(clean, "$", "")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.ReplaceAll(clean, " ", "")
	if clean == "" {
		return 0, fmt.Errorf("%w: %q", ErrAmount, s)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrAmount, s, err)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("%w: %q has fractional cents", ErrAmount, s)
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents as a plain decimal string, e.g. -1234 -> "-12.34".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// Display renders cents with a dollar sign, e.g. -1234 -> "-$12.34".
func Display(cents int64) string {
	if cents < 0 {
		return "-$" + FormatCents(-cents)
	}
	return "$" + FormatCents(cents)
}

// Dollars returns cents as a float, for spreadsheet cells.
func Dollars(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}
