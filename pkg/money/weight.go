package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
)

// WeightUnit tags a Weight with its measurement unit.
type WeightUnit string

const (
	Kilograms WeightUnit = "kg"
	Pounds    WeightUnit = "lb"
)

// kgPerPound is the exact avoirdupois definition, so kg/lb round-trips are
// lossless at decimal precision.
var kgPerPound = decimal.RequireFromString("0.45359237")

// Weight is an immutable unit-tagged weight, used for MTOW fee rating.
type Weight struct {
	value decimal.Decimal
	unit  WeightUnit
}

// NewWeight builds a Weight from a string value.
func NewWeight(value string, unit WeightUnit) (Weight, error) {
	if unit != Kilograms && unit != Pounds {
		return Weight{}, dErrors.New(dErrors.CodeValidation, "unknown weight unit %q", unit)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Weight{}, dErrors.New(dErrors.CodeValidation, "invalid weight %q", value)
	}
	if d.IsNegative() {
		return Weight{}, dErrors.New(dErrors.CodeValidation, "weight cannot be negative")
	}
	return Weight{value: d, unit: unit}, nil
}

// MustWeight is NewWeight for tests and constants; panics on bad input.
func MustWeight(value string, unit WeightUnit) Weight {
	w, err := NewWeight(value, unit)
	if err != nil {
		panic(err)
	}
	return w
}

// WeightFromKg builds a kilogram weight from an integer value.
func WeightFromKg(kg int64) Weight {
	return Weight{value: decimal.NewFromInt(kg), unit: Kilograms}
}

func (w Weight) Value() decimal.Decimal { return w.value }
func (w Weight) Unit() WeightUnit       { return w.unit }

// ToKilograms converts without loss.
func (w Weight) ToKilograms() Weight {
	if w.unit == Kilograms {
		return w
	}
	return Weight{value: w.value.Mul(kgPerPound), unit: Kilograms}
}

// ToPounds converts without loss.
func (w Weight) ToPounds() Weight {
	if w.unit == Pounds {
		return w
	}
	return Weight{value: w.value.Div(kgPerPound), unit: Pounds}
}

// Kg returns the weight in kilograms as a decimal, converting if needed.
func (w Weight) Kg() decimal.Decimal {
	return w.ToKilograms().value
}

func (w Weight) String() string {
	return fmt.Sprintf("%s %s", w.value.String(), w.unit)
}

type weightJSON struct {
	Value string     `json:"value"`
	Unit  WeightUnit `json:"unit"`
}

// MarshalJSON encodes the value as a string, mirroring Money.
func (w Weight) MarshalJSON() ([]byte, error) {
	return json.Marshal(weightJSON{Value: w.value.String(), Unit: w.unit})
}

func (w *Weight) UnmarshalJSON(data []byte) error {
	var raw weightJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewWeight(raw.Value, raw.Unit)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
