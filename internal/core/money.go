// Package core provides the expense domain model.
//
// This file contains the Amount type: a non-negative decimal with two-decimal
// fidelity, stored and serialized the way a NUMERIC(12,2) column renders it.
package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value rounded to cents.
type Amount struct {
	decimal.Decimal
}

// MaxAmount is the largest value a NUMERIC(12,2) column holds.
var MaxAmount = AmountFromCents(999_999_999_999)

// Digits allowed left of the point, checked before any rescaling so inputs
// like 1e2000000000 never reach big.Int arithmetic. Sums may outgrow a row.
const (
	maxIntegerDigits    = 10
	maxSumIntegerDigits = 30
)

// NewAmount rounds d half-up to two decimal places.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d.Round(2)}
}

// AmountFromCents builds an Amount from an integer number of cents.
func AmountFromCents(cents int64) Amount {
	return Amount{Decimal: decimal.New(cents, -2)}
}

// ParseAmount parses a decimal string such as "8.75", "0" or "1e2".
//
// The whole string must be a number: "12abc", "NaN" and "Infinity" are rejected,
// as are negative values and values above MaxAmount. Fractions beyond cents
// are rounded half-up.
//
// Examples:
//
//	ParseAmount("25.5")  -> 25.50, nil
//	ParseAmount(" 0 ")   -> 0.00, nil
//	ParseAmount("-5")    -> ErrAmountInvalid
//	ParseAmount("abc")   -> ErrAmountInvalid
//	ParseAmount("1e400") -> ErrAmountInvalid
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrAmountInvalid
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrAmountInvalid
	}
	a, err := boundedAmount(d, maxIntegerDigits)
	if err != nil {
		return Amount{}, err
	}
	if a.GreaterThan(MaxAmount.Decimal) {
		return Amount{}, ErrAmountInvalid
	}
	return a, nil
}

// boundedAmount rounds d to cents after checking sign and magnitude.
func boundedAmount(d decimal.Decimal, maxDigits int64) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, ErrAmountInvalid
	}
	if d.IsZero() {
		return Amount{Decimal: decimal.New(0, -2)}, nil
	}
	intDigits := int64(d.NumDigits()) + int64(d.Exponent())
	if intDigits > maxDigits {
		return Amount{}, ErrAmountInvalid
	}
	if intDigits < -2 {
		// Rounds to zero cents.
		return Amount{Decimal: decimal.New(0, -2)}, nil
	}
	return NewAmount(d), nil
}

// String renders the amount with exactly two decimals.
func (a Amount) String() string {
	return a.Decimal.StringFixed(2)
}

// Cents returns the amount as an integer number of cents.
func (a Amount) Cents() int64 {
	return a.Decimal.Shift(2).Round(0).IntPart()
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Add(b.Decimal)}
}

// Equal compares two amounts by value, ignoring representation.
func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

// MarshalJSON emits a quoted fixed-point string ("25.50").
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both quoted strings and bare JSON numbers. Totals may
// exceed MaxAmount, so only the digit bound applies here.
func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return fmt.Errorf("amount: %w", ErrAmountRequired)
	}
	var s string
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("amount: %w", err)
		}
	} else {
		s = raw
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, ErrAmountInvalid)
	}
	parsed, err := boundedAmount(d, maxSumIntegerDigits)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	*a = parsed
	return nil
}

// Scan implements sql.Scanner. Postgres NUMERIC arrives as []byte, SQLite
// sums arrive as float64; both are normalized to cents.
func (a *Amount) Scan(value any) error {
	var d decimal.Decimal
	if value == nil {
		a.Decimal = decimal.Zero
		return nil
	}
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("scan amount: %w", err)
	}
	*a = NewAmount(d)
	return nil
}

// Value implements driver.Valuer.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}
