// Package store provides persistence for permit applications. The in-memory
// implementation keeps the initial deployment lightweight and testable; it
// intentionally favors clarity over performance.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/JRosan/fop-system-sub004/internal/application/models"
	"github.com/JRosan/fop-system-sub004/pkg/platform/sentinel"
)

// InMemory stores applications keyed by ID. Execute holds the lock across
// validate-and-mutate so concurrent operations on one aggregate serialize.
type InMemory struct {
	mu   sync.RWMutex
	apps map[uuid.UUID]*models.Application
}

func NewInMemory() *InMemory {
	return &InMemory{apps: make(map[uuid.UUID]*models.Application)}
}

func (s *InMemory) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := clone(app)
	s.apps[app.ID] = copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(app), nil
}

func (s *InMemory) ListByOperator(_ context.Context, operatorID uuid.UUID) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, app := range s.apps {
		if app.OperatorID == operatorID {
			out = append(out, clone(app))
		}
	}
	return out, nil
}

// Execute runs an atomic read-modify-write on one application. The callback
// both validates and mutates; if it returns an error, the stored aggregate is
// untouched.
func (s *InMemory) Execute(_ context.Context, id uuid.UUID, fn func(app *models.Application) error) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.apps[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := clone(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	s.apps[id] = working
	return clone(working), nil
}

// clone deep-copies the aggregate so callers never alias stored state.
func clone(app *models.Application) *models.Application {
	copied := *app
	copied.Documents = append([]models.Document(nil), app.Documents...)
	copied.Waivers = append([]models.Waiver(nil), app.Waivers...)
	if app.Payment != nil {
		payment := *app.Payment
		copied.Payment = &payment
	}
	if app.Override != nil {
		override := *app.Override
		copied.Override = &override
	}
	return &copied
}
