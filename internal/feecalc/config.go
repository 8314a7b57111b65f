// Package feecalc computes a permit application's base fee from seat count,
// MTOW, and application type, against a versioned fee configuration.
package feecalc

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
	"github.com/JRosan/fop-system-sub004/pkg/platform/sentinel"
)

// ApplicationType mirrors internal/application's type enum; feecalc keys its
// multipliers on the raw string to avoid an import cycle.
type ApplicationType string

const (
	TypeOneTime   ApplicationType = "one_time"
	TypeBlanket   ApplicationType = "blanket"
	TypeEmergency ApplicationType = "emergency"
)

// FeeConfiguration is a versioned record of the three rate constants and the
// per-type multipliers. Exactly one configuration is active at a time,
// optionally bounded by an effective-date window.
type FeeConfiguration struct {
	ID            uuid.UUID
	Version       int
	Currency      money.Currency
	BaseFee       decimal.Decimal
	PerSeatFee    decimal.Decimal
	PerKgFee      decimal.Decimal
	Multipliers   map[ApplicationType]decimal.Decimal
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
	Active        bool
	CreatedAt     time.Time
}

// Multiplier returns the configured multiplier for a type, defaulting to 1.
func (c *FeeConfiguration) Multiplier(t ApplicationType) decimal.Decimal {
	if m, ok := c.Multipliers[t]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// InEffect reports whether the configuration's effective window covers now.
func (c *FeeConfiguration) InEffect(now time.Time) bool {
	if c.EffectiveFrom != nil && now.Before(*c.EffectiveFrom) {
		return false
	}
	if c.EffectiveTo != nil && now.After(*c.EffectiveTo) {
		return false
	}
	return true
}

// ConfigStore resolves the active fee configuration.
type ConfigStore interface {
	Active(ctx context.Context, now time.Time) (*FeeConfiguration, error)
	Save(ctx context.Context, cfg *FeeConfiguration) error
}

// InMemoryConfigStore keeps configurations in memory, favoring clarity over
// performance.
type InMemoryConfigStore struct {
	mu      sync.RWMutex
	configs map[uuid.UUID]*FeeConfiguration
}

func NewInMemoryConfigStore() *InMemoryConfigStore {
	return &InMemoryConfigStore{configs: make(map[uuid.UUID]*FeeConfiguration)}
}

// Save stores a configuration. Activating one deactivates any other active
// configuration so the single-active invariant holds.
func (s *InMemoryConfigStore) Save(_ context.Context, cfg *FeeConfiguration) error {
	if cfg == nil || cfg.ID == (uuid.UUID{}) {
		return dErrors.New(dErrors.CodeValidation, "fee configuration requires an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.Active {
		for _, existing := range s.configs {
			if existing.ID != cfg.ID {
				existing.Active = false
			}
		}
	}
	copied := *cfg
	s.configs[cfg.ID] = &copied
	return nil
}

// Active returns the single active configuration whose effective window covers
// now. The newest version wins if several records are flagged active.
func (s *InMemoryConfigStore) Active(_ context.Context, now time.Time) (*FeeConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []*FeeConfiguration
	for _, cfg := range s.configs {
		if cfg.Active && cfg.InEffect(now) {
			candidates = append(candidates, cfg)
		}
	}
	if len(candidates) == 0 {
		return nil, sentinel.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Version > candidates[j].Version
	})
	copied := *candidates[0]
	return &copied, nil
}
