package money_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JRosan/fop-system-sub004/pkg/money"
)

func TestWeightConversion(t *testing.T) {
	lb := money.MustWeight("1000", money.Pounds)
	kg := lb.ToKilograms()

	assert.Equal(t, money.Kilograms, kg.Unit())
	assert.True(t, kg.Value().Equal(decimal.RequireFromString("453.59237")))

	// Round trip is lossless at decimal precision.
	back := kg.ToPounds()
	assert.True(t, back.Value().Equal(decimal.NewFromInt(1000)))
}

func TestWeightKg(t *testing.T) {
	w := money.WeightFromKg(5700)
	assert.True(t, w.Kg().Equal(decimal.NewFromInt(5700)))
	assert.Equal(t, "5700 kg", w.String())
}

func TestNewWeightValidation(t *testing.T) {
	_, err := money.NewWeight("-1", money.Kilograms)
	require.Error(t, err)

	_, err = money.NewWeight("10", "stone")
	require.Error(t, err)

	_, err = money.NewWeight("heavy", money.Kilograms)
	require.Error(t, err)
}

func TestWeightJSONRoundTrip(t *testing.T) {
	original := money.MustWeight("77000.5", money.Kilograms)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded money.Weight
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Value().Equal(original.Value()))
	assert.Equal(t, money.Kilograms, decoded.Unit())
}
