package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JRosan/fop-system-sub004/internal/revenue/models"
	"github.com/JRosan/fop-system-sub004/internal/revenue/schedule"
	"github.com/JRosan/fop-system-sub004/pkg/money"
)

var engineNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func defaultRate() decimal.Decimal {
	return decimal.RequireFromString("0.015")
}

func charterFlight() models.FlightInfo {
	return models.FlightInfo{
		Airport:        "TAPA",
		OperationType:  models.OpCharter,
		FlightDate:     engineNow,
		AircraftID:     uuid.New(),
		MTOW:           money.WeightFromKg(68000),
		SeatCount:      120,
		PassengerCount: 96,
	}
}

func seedRates(t *testing.T, store schedule.RateStore, rates ...*models.FeeRate) {
	t.Helper()
	for _, r := range rates {
		require.NoError(t, store.Save(context.Background(), r))
	}
}

func flatRate(category models.FeeCategory, amount string) *models.FeeRate {
	return &models.FeeRate{
		ID:            uuid.New(),
		Category:      category,
		OperationType: models.OpCharter,
		Rate:          money.MustNew(amount, money.USD),
	}
}

func TestCalculateChargesMostSpecificRateWins(t *testing.T) {
	store := schedule.NewInMemoryRateStore()
	general := flatRate(models.CategorySecurity, "100.00")
	atAirport := flatRate(models.CategorySecurity, "150.00")
	atAirport.Airport = "TAPA"
	tiered := flatRate(models.CategorySecurity, "125.00")
	tiered.WeightTier = models.TierMedium
	seedRates(t, store, general, atAirport, tiered)

	engine := schedule.NewEngine(store, defaultRate())
	lines, err := engine.CalculateCharges(context.Background(), charterFlight(), engineNow)
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, "150.00 USD", lines[0].Amount.String())
}

func TestCalculateChargesPerTonneRoundsUp(t *testing.T) {
	store := schedule.NewInMemoryRateStore()
	landing := &models.FeeRate{
		ID:            uuid.New(),
		Category:      models.CategoryLanding,
		OperationType: models.OpCharter,
		PerUnit:       true,
		Unit:          "tonne",
		Rate:          money.MustNew("12.50", money.USD),
	}
	seedRates(t, store, landing)
	engine := schedule.NewEngine(store, defaultRate())

	flight := charterFlight()
	flight.MTOW = money.WeightFromKg(68400) // 68.4 t bills as 69

	lines, err := engine.CalculateCharges(context.Background(), flight, engineNow)
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(69)))
	assert.Equal(t, "862.50 USD", lines[0].Amount.String())
}

func TestCalculateChargesPerPassenger(t *testing.T) {
	store := schedule.NewInMemoryRateStore()
	pax := &models.FeeRate{
		ID:            uuid.New(),
		Category:      models.CategoryPassengerService,
		OperationType: models.OpCharter,
		PerUnit:       true,
		Unit:          "passenger",
		Rate:          money.MustNew("3.25", money.USD),
	}
	seedRates(t, store, pax)
	engine := schedule.NewEngine(store, defaultRate())

	lines, err := engine.CalculateCharges(context.Background(), charterFlight(), engineNow)
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(96)))
	assert.Equal(t, "312.00 USD", lines[0].Amount.String())
}

func TestCalculateChargesMinimumFeeFloor(t *testing.T) {
	store := schedule.NewInMemoryRateStore()
	minimum := money.MustNew("50.00", money.USD)
	landing := &models.FeeRate{
		ID:            uuid.New(),
		Category:      models.CategoryLanding,
		OperationType: models.OpCharter,
		PerUnit:       true,
		Unit:          "tonne",
		Rate:          money.MustNew("5.00", money.USD),
		MinimumFee:    &minimum,
	}
	seedRates(t, store, landing)
	engine := schedule.NewEngine(store, defaultRate())

	flight := charterFlight()
	flight.MTOW = money.WeightFromKg(4500) // 5 t × 5.00 = 25.00, below the floor

	lines, err := engine.CalculateCharges(context.Background(), flight, engineNow)
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, "50.00 USD", lines[0].Amount.String())
}

func TestCalculateChargesSkipsNonMatchingRates(t *testing.T) {
	store := schedule.NewInMemoryRateStore()

	otherOp := flatRate(models.CategoryParking, "80.00")
	otherOp.OperationType = models.OpCargo

	expired := flatRate(models.CategorySecurity, "100.00")
	past := engineNow.AddDate(0, -1, 0)
	expired.EffectiveTo = &past

	notYet := flatRate(models.CategoryNavigation, "60.00")
	future := engineNow.AddDate(0, 1, 0)
	notYet.EffectiveFrom = &future

	seedRates(t, store, otherOp, expired, notYet)
	engine := schedule.NewEngine(store, defaultRate())

	lines, err := engine.CalculateCharges(context.Background(), charterFlight(), engineNow)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCalculateChargesSortedByCategory(t *testing.T) {
	store := schedule.NewInMemoryRateStore()
	seedRates(t, store,
		flatRate(models.CategorySecurity, "100.00"),
		flatRate(models.CategoryLanding, "200.00"),
		flatRate(models.CategoryNavigation, "75.00"),
	)
	engine := schedule.NewEngine(store, defaultRate())

	lines, err := engine.CalculateCharges(context.Background(), charterFlight(), engineNow)
	require.NoError(t, err)

	require.Len(t, lines, 3)
	assert.Equal(t, models.CategoryLanding, lines[0].Category)
	assert.Equal(t, models.CategoryNavigation, lines[1].Category)
	assert.Equal(t, models.CategorySecurity, lines[2].Category)
}

func TestTierForWeight(t *testing.T) {
	assert.Equal(t, models.TierLight, models.TierForWeight(money.WeightFromKg(5700)))
	assert.Equal(t, models.TierMedium, models.TierForWeight(money.WeightFromKg(7000)))
	assert.Equal(t, models.TierMedium, models.TierForWeight(money.WeightFromKg(68000)))
	assert.Equal(t, models.TierHeavy, models.TierForWeight(money.WeightFromKg(136000)))
}

func TestCalculateInterest(t *testing.T) {
	engine := schedule.NewEngine(schedule.NewInMemoryRateStore(), defaultRate())
	balance := money.MustNew("1000.00", money.USD)

	t.Run("nothing within the grace period", func(t *testing.T) {
		assert.True(t, engine.CalculateInterest(balance, 0).IsZero())
		assert.True(t, engine.CalculateInterest(balance, 30).IsZero())
	})

	t.Run("first period starts at day 31", func(t *testing.T) {
		// 1000 × (1.015^1 − 1) = 15.00
		got := engine.CalculateInterest(balance, 31)
		assert.Equal(t, "15.00 USD", got.String())
	})

	t.Run("second period compounds", func(t *testing.T) {
		// 1000 × (1.015^2 − 1) = 30.23 after rounding
		got := engine.CalculateInterest(balance, 61)
		assert.Equal(t, "30.23 USD", got.String())
	})

	t.Run("monotonic past the grace period", func(t *testing.T) {
		d31 := engine.CalculateInterest(balance, 31)
		d61 := engine.CalculateInterest(balance, 61)
		d91 := engine.CalculateInterest(balance, 91)
		assert.True(t, d61.Cmp(d31) > 0)
		assert.True(t, d91.Cmp(d61) > 0)
	})

	t.Run("period boundary at day 60", func(t *testing.T) {
		// Day 59 is still one period past grace; day 60 starts the second.
		d59 := engine.CalculateInterest(balance, 59)
		d60 := engine.CalculateInterest(balance, 60)
		assert.Equal(t, "15.00 USD", d59.String())
		assert.Equal(t, "30.23 USD", d60.String())
	})
}
