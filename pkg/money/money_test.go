package money_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency money.Currency
		wantErr  bool
	}{
		{name: "valid amount", amount: "1250.50", currency: money.USD},
		{name: "zero", amount: "0", currency: money.XCD},
		{name: "negative allowed", amount: "-10.00", currency: money.EUR},
		{name: "garbage amount", amount: "twelve", currency: money.USD, wantErr: true},
		{name: "missing currency", amount: "10.00", currency: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := money.New(tt.amount, tt.currency)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.currency, m.Currency())
		})
	}
}

func TestArithmetic(t *testing.T) {
	a := money.MustNew("100.50", money.USD)
	b := money.MustNew("24.50", money.USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "125.00 USD", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "76.00 USD", diff.String())

	assert.Equal(t, "201.00 USD", a.MulInt(2).String())
	assert.Equal(t, "50.25 USD", a.Mul(decimal.RequireFromString("0.5")).String())
}

func TestCurrencyMismatch(t *testing.T) {
	usd := money.MustNew("10.00", money.USD)
	eur := money.MustNew("10.00", money.EUR)

	_, err := usd.Add(eur)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = usd.Sub(eur)
	require.Error(t, err)

	assert.Panics(t, func() { usd.Cmp(eur) })
}

func TestCmpAndPredicates(t *testing.T) {
	small := money.MustNew("1.00", money.XCD)
	big := money.MustNew("2.00", money.XCD)

	assert.Equal(t, -1, small.Cmp(big))
	assert.Equal(t, 1, big.Cmp(small))
	assert.Equal(t, 0, small.Cmp(money.MustNew("1.00", money.XCD)))

	assert.True(t, money.Zero(money.USD).IsZero())
	assert.True(t, money.MustNew("-5", money.USD).IsNegative())
	assert.True(t, small.IsPositive())
	assert.True(t, small.Equal(money.MustNew("1.000", money.XCD)))
}

func TestRound(t *testing.T) {
	m := money.MustNew("10.005", money.USD)
	assert.Equal(t, "10.01 USD", m.Round().String())
}

func TestJSONRoundTrip(t *testing.T) {
	original := money.MustNew("1234.56", money.XCD)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded money.Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equal(decoded))
	assert.Equal(t, money.XCD, decoded.Currency())
}
