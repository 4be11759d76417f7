// Package core provides the domain types shared by storage, analytics and
// the HTTP layer.
//
// Money is held as integer cents. Parsing and every operation that can
// produce fractions of a cent go through shopspring/decimal and round
// half-even, so totals reconcile exactly with the breakdown lines a user
// typed in.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ParseMoney converts a user-entered amount to Money.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. The
// value is rounded to two digits half-even:
//
//	ParseMoney("10,50")  -> 10.50
//	ParseMoney("0.125")  -> 0.12
//	ParseMoney("0.135")  -> 0.14
//
// Sign is preserved; positivity is a write-time rule, not a parse rule.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return FromDecimal(d)
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromDecimal rounds d half-even to cents.
func FromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.RoundBank(2).Shift(2)
	if cents.Abs().GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

func Cents(c int64) Money { return Money{Cents: c} }

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

func (m Money) Sign() int {
	switch {
	case m.Cents > 0:
		return 1
	case m.Cents < 0:
		return -1
	}
	return 0
}

// DivRound divides by n and rounds half-even. n < 1 is treated as 1.
func (m Money) DivRound(n int64) Money {
	if n < 1 {
		n = 1
	}
	q := m.Decimal().Div(decimal.NewFromInt(n))
	r, _ := FromDecimal(q)
	return r
}

// String renders the canonical two-digit form, e.g. "1234.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalText(b []byte) error {
	v, err := ParseMoney(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Sum adds all values.
func Sum(values ...Money) Money {
	var total Money
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
