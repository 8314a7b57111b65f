// Package schedule implements the revenue fee schedule engine: itemized
// per-flight charges selected from the rate table, and overdue interest.
package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JRosan/fop-system-sub004/internal/revenue/models"
	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
)

// graceDays is the window after the due date during which no interest
// accrues.
const graceDays = 30

// RateStore resolves fee rates.
type RateStore interface {
	List(ctx context.Context) ([]*models.FeeRate, error)
	Save(ctx context.Context, rate *models.FeeRate) error
}

// InMemoryRateStore keeps the rate table in memory.
type InMemoryRateStore struct {
	mu    sync.RWMutex
	rates map[uuid.UUID]*models.FeeRate
}

func NewInMemoryRateStore() *InMemoryRateStore {
	return &InMemoryRateStore{rates: make(map[uuid.UUID]*models.FeeRate)}
}

func (s *InMemoryRateStore) Save(_ context.Context, rate *models.FeeRate) error {
	if rate == nil || rate.ID == (uuid.UUID{}) {
		return dErrors.New(dErrors.CodeValidation, "fee rate requires an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *rate
	s.rates[rate.ID] = &copied
	return nil
}

func (s *InMemoryRateStore) List(_ context.Context) ([]*models.FeeRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.FeeRate, 0, len(s.rates))
	for _, r := range s.rates {
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}

// ChargeLine is one computed charge, ready to become an invoice line item.
type ChargeLine struct {
	Category    models.FeeCategory
	Description string
	Quantity    decimal.Decimal
	Unit        string
	UnitRate    money.Money
	Amount      money.Money
}

// Engine selects applicable rates and computes charges and interest.
type Engine struct {
	rates RateStore

	// monthlyRate is the compounding interest rate per 30-day period beyond
	// the grace period.
	monthlyRate decimal.Decimal
}

func NewEngine(rates RateStore, monthlyRate decimal.Decimal) *Engine {
	return &Engine{rates: rates, monthlyRate: monthlyRate}
}

// CalculateCharges emits one charge line per fee category applicable to the
// flight. For each category, the most specific matching rate wins.
func (e *Engine) CalculateCharges(ctx context.Context, flight models.FlightInfo, now time.Time) ([]ChargeLine, error) {
	all, err := e.rates.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load fee rates")
	}

	tier := models.TierForWeight(flight.MTOW)
	best := make(map[models.FeeCategory]*models.FeeRate)
	for _, rate := range all {
		if !rate.Matches(flight.OperationType, flight.Airport, tier, now) {
			continue
		}
		current, ok := best[rate.Category]
		if !ok || rate.Specificity() > current.Specificity() {
			best[rate.Category] = rate
		}
	}

	lines := make([]ChargeLine, 0, len(best))
	for _, rate := range best {
		lines = append(lines, e.buildLine(rate, flight))
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Category < lines[j].Category })
	return lines, nil
}

// buildLine applies per-unit pricing and the minimum-fee floor.
func (e *Engine) buildLine(rate *models.FeeRate, flight models.FlightInfo) ChargeLine {
	quantity := decimal.NewFromInt(1)
	if rate.PerUnit {
		quantity = unitCount(rate, flight)
	}
	amount := rate.Rate.Mul(quantity).Round()
	if rate.MinimumFee != nil && amount.Cmp(*rate.MinimumFee) < 0 {
		amount = *rate.MinimumFee
	}
	return ChargeLine{
		Category:    rate.Category,
		Description: describeCharge(rate),
		Quantity:    quantity,
		Unit:        rate.Unit,
		UnitRate:    rate.Rate,
		Amount:      amount,
	}
}

// unitCount resolves the billable unit count for a per-unit rate.
func unitCount(rate *models.FeeRate, flight models.FlightInfo) decimal.Decimal {
	switch rate.Unit {
	case "passenger":
		return decimal.NewFromInt(int64(flight.PassengerCount))
	case "tonne":
		// Landing and navigation rates bill per tonne of MTOW, rounded up.
		return flight.MTOW.Kg().Div(decimal.NewFromInt(1000)).Ceil()
	default:
		return decimal.NewFromInt(1)
	}
}

func describeCharge(rate *models.FeeRate) string {
	desc := string(rate.Category) + " fee"
	if rate.Airport != "" {
		desc += " at " + rate.Airport
	}
	return desc
}

// CalculateInterest returns the interest owed on a balance that has been
// overdue for daysOverdue days. Nothing accrues within the 30-day grace
// period; beyond it, the monthly rate compounds once per elapsed 30-day
// period:
//
//	months   = (daysOverdue − 30)/30 + 1
//	interest = balance × ((1 + rate)^months − 1)
//
// The result is strictly increasing in daysOverdue past the grace period.
func (e *Engine) CalculateInterest(balanceDue money.Money, daysOverdue int) money.Money {
	if daysOverdue <= graceDays {
		return money.Zero(balanceDue.Currency())
	}
	months := (daysOverdue-graceDays)/30 + 1
	factor := decimal.NewFromInt(1).Add(e.monthlyRate).Pow(decimal.NewFromInt(int64(months)))
	interest := balanceDue.Mul(factor.Sub(decimal.NewFromInt(1)))
	return interest.Round()
}
