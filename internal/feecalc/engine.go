package feecalc

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
	"github.com/JRosan/fop-system-sub004/pkg/platform/sentinel"
	"github.com/JRosan/fop-system-sub004/pkg/requestcontext"
)

// Input carries the rating factors for one application.
type Input struct {
	Type      ApplicationType
	SeatCount int
	MTOW      money.Weight
}

// Breakdown itemizes the fee for display alongside the total.
//
// totalFee = (baseFee + perSeatFee×seats + perKgFee×mtowKg) × multiplier(type)
type Breakdown struct {
	Base            money.Money
	SeatComponent   money.Money
	WeightComponent money.Money
	Multiplier      decimal.Decimal
	Total           money.Money
}

// Engine computes application fees from the active configuration.
type Engine struct {
	configs ConfigStore
}

func NewEngine(configs ConfigStore) *Engine {
	return &Engine{configs: configs}
}

// Calculate rates an application against the active fee configuration.
func (e *Engine) Calculate(ctx context.Context, in Input) (*Breakdown, error) {
	if in.SeatCount < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "seat count cannot be negative")
	}

	cfg, err := e.configs.Active(ctx, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "no active fee configuration")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load fee configuration")
	}

	base := money.FromDecimal(cfg.BaseFee, cfg.Currency)
	seats := money.FromDecimal(cfg.PerSeatFee, cfg.Currency).MulInt(int64(in.SeatCount))
	weight := money.FromDecimal(cfg.PerKgFee.Mul(in.MTOW.Kg()), cfg.Currency)

	subtotal, err := base.Add(seats)
	if err != nil {
		return nil, err
	}
	subtotal, err = subtotal.Add(weight)
	if err != nil {
		return nil, err
	}

	multiplier := cfg.Multiplier(in.Type)
	total := subtotal.Mul(multiplier).Round()

	return &Breakdown{
		Base:            base,
		SeatComponent:   seats,
		WeightComponent: weight,
		Multiplier:      multiplier,
		Total:           total,
	}, nil
}
