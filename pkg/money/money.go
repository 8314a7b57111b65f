// Package money provides the immutable value types shared by every fee and
// ledger component: currency-tagged decimal amounts and unit-tagged weights.
//
// Amounts use decimal arithmetic throughout; float64 never touches a fee or a
// balance.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
)

// Currency is an ISO 4217 code. The system is currency-strict: amounts in
// different currencies never combine silently.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	XCD Currency = "XCD"
)

// Money is an immutable currency-tagged amount. The zero value is not valid;
// construct via New, FromDecimal, or Zero.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New builds a Money from a string amount, e.g. New("1250.50", money.USD).
func New(amount string, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, dErrors.New(dErrors.CodeValidation, "currency is required")
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, dErrors.New(dErrors.CodeValidation, "invalid amount %q", amount)
	}
	return Money{amount: d, currency: currency}, nil
}

// MustNew is New for package-level constants and tests; panics on bad input.
func MustNew(amount string, currency Currency) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromDecimal wraps an already-parsed decimal.
func FromDecimal(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// Zero returns the zero amount in the given currency.
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// Add returns m + other; fails on currency mismatch.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub returns m − other; fails on currency mismatch. The result may be
// negative; callers guarding a floor check IsNegative themselves.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Mul scales the amount by a decimal factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// MulInt scales the amount by an integer quantity.
func (m Money) MulInt(n int64) Money {
	return m.Mul(decimal.NewFromInt(n))
}

// Cmp compares amounts: -1 if m < other, 0 if equal, +1 if m > other.
// Comparing across currencies is a programming error and panics.
func (m Money) Cmp(other Money) int {
	if err := m.sameCurrency(other); err != nil {
		panic(err)
	}
	return m.amount.Cmp(other.amount)
}

// Equal reports value equality (same currency, same amount).
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Round returns the amount rounded to the currency's minor unit (2 places).
func (m Money) Round() Money {
	return Money{amount: m.amount.Round(2), currency: m.currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON encodes the amount as a string so no precision is lost in
// persistence or event payloads.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.String(), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d, err := decimal.NewFromString(raw.Amount)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid amount %q", raw.Amount)
	}
	m.amount = d
	m.currency = raw.Currency
	return nil
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return dErrors.New(dErrors.CodeValidation,
			"currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return nil
}
