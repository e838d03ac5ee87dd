package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point amount rendered with two fraction digits.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

// MustMoney parses a literal amount such as "8.99". It panics on malformed input
// and is meant for seed data and tests.
func MustMoney(s string) Money {
	return Money{Decimal: decimal.RequireFromString(s)}
}

func (m Money) String() string {
	return m.StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.StringFixed(2))
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Decimal.UnmarshalJSON(b)
}
