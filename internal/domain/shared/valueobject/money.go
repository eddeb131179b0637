// Package valueobject holds immutable domain value types.
package valueobject

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code.
type Currency string

// INR is the only currency the system bills in today.
const INR Currency = "INR"

// Money pairs an amount with its currency. It is immutable; every
// operation returns a new value, and operations across currencies fail
// rather than silently mixing units.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

func NewMoneyINR(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: INR}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency     { return m.currency }
func (m Money) IsZero() bool           { return m.amount.IsZero() }
func (m Money) IsPositive() bool       { return m.amount.IsPositive() }
func (m Money) IsNegative() bool       { return m.amount.IsNegative() }

func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add %s to %s", other.currency, m.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot subtract %s from %s", other.currency, m.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) LessThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, fmt.Errorf("cannot compare %s with %s", m.currency, other.currency)
	}
	return m.amount.LessThan(other.amount), nil
}

func (m Money) GreaterThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, fmt.Errorf("cannot compare %s with %s", m.currency, other.currency)
	}
	return m.amount.GreaterThan(other.amount), nil
}

// Floor truncates toward zero to a whole number of currency units.
// Used when a refund is converted to loyalty points, where a point is
// one whole rupee and sub-unit fractions are forfeited.
func (m Money) Floor() Money {
	return Money{amount: m.amount.Truncate(0), currency: m.currency}
}

// WholeUnits returns the amount truncated toward zero as an integer,
// matching Floor.
func (m Money) WholeUnits() int64 {
	return m.amount.IntPart()
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}
