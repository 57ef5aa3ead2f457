package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is a currency amount in hundredths of a unit, as sent over the wire.
type Cents int64

var (
	// ErrInvalidAmount is returned when text cannot be read as a currency amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNonPositiveAmount is returned for zero or negative amounts.
	ErrNonPositiveAmount = errors.New("amount must be a positive number")
)

// ParseCents converts user-entered text such as "3.50" into cents.
// Amounts are rounded half away from zero to the nearest cent.
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	c := d.Shift(2).Round(0)
	if !c.IsPositive() {
		return 0, ErrNonPositiveAmount
	}
	if !c.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %q is too large", ErrInvalidAmount, s)
	}
	return Cents(c.IntPart()), nil
}

// Decimal returns the amount in currency units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount with two decimal places.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}
