package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JRosan/fop-system-sub004/pkg/money"
)

// WeightTier buckets MTOW for fee-rate selection.
type WeightTier string

const (
	TierLight  WeightTier = "light"  // below 7,000 kg
	TierMedium WeightTier = "medium" // 7,000 kg to below 136,000 kg
	TierHeavy  WeightTier = "heavy"  // 136,000 kg and above
)

var (
	mediumTierFloorKg = decimal.NewFromInt(7000)
	heavyTierFloorKg  = decimal.NewFromInt(136000)
)

// TierForWeight maps an MTOW to its weight tier.
func TierForWeight(w money.Weight) WeightTier {
	kg := w.Kg()
	switch {
	case kg.GreaterThanOrEqual(heavyTierFloorKg):
		return TierHeavy
	case kg.GreaterThanOrEqual(mediumTierFloorKg):
		return TierMedium
	default:
		return TierLight
	}
}

// FeeRate is one entry of the revenue fee schedule, keyed by category and
// operation type, optionally narrowed to an airport and a weight tier, with
// an effective-date window.
type FeeRate struct {
	ID            uuid.UUID
	Category      FeeCategory
	OperationType OperationType
	Airport       string     // empty = any airport
	WeightTier    WeightTier // empty = any tier
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time

	// PerUnit rates multiply by a unit count (tonnes, passengers); flat rates
	// charge Rate once. MinimumFee, when set, floors a per-unit amount.
	PerUnit    bool
	Unit       string
	Rate       money.Money
	MinimumFee *money.Money
}

// Matches reports whether the rate applies to a flight at the given time.
func (r *FeeRate) Matches(opType OperationType, airport string, tier WeightTier, now time.Time) bool {
	if r.OperationType != opType {
		return false
	}
	if r.Airport != "" && r.Airport != airport {
		return false
	}
	if r.WeightTier != "" && r.WeightTier != tier {
		return false
	}
	if r.EffectiveFrom != nil && now.Before(*r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && now.After(*r.EffectiveTo) {
		return false
	}
	return true
}

// Specificity ranks competing rates for one category: an airport-specific,
// tier-specific rate beats a general one.
func (r *FeeRate) Specificity() int {
	score := 0
	if r.Airport != "" {
		score += 2
	}
	if r.WeightTier != "" {
		score++
	}
	return score
}
