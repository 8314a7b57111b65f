// Package store provides permit persistence and the permit-number sequence.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JRosan/fop-system-sub004/internal/permit/models"
	"github.com/JRosan/fop-system-sub004/pkg/platform/sentinel"
)

// InMemory stores permits keyed by ID.
type InMemory struct {
	mu       sync.RWMutex
	permits  map[uuid.UUID]*models.Permit
	sequence int64
}

func NewInMemory() *InMemory {
	return &InMemory{permits: make(map[uuid.UUID]*models.Permit)}
}

// NextSequence reserves the next permit-number sequence value.
func (s *InMemory) NextSequence(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence++
	return s.sequence, nil
}

func (s *InMemory) Create(_ context.Context, permit *models.Permit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.permits[permit.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *permit
	s.permits[permit.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Permit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	permit, ok := s.permits[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *permit
	return &copied, nil
}

// ListActiveExpiredBy returns Active permits whose validity end is at or
// before the cutoff. Used by the expiry job.
func (s *InMemory) ListActiveExpiredBy(_ context.Context, cutoff time.Time) ([]*models.Permit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Permit
	for _, p := range s.permits {
		if p.Status == models.StatusActive && !p.ValidUntil.After(cutoff) {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

// ListActive returns all Active permits. The expiry job scans these for
// exact-day warning thresholds.
func (s *InMemory) ListActive(_ context.Context) ([]*models.Permit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Permit
	for _, p := range s.permits {
		if p.Status == models.StatusActive {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Execute runs an atomic read-modify-write on one permit.
func (s *InMemory) Execute(_ context.Context, id uuid.UUID, fn func(p *models.Permit) error) (*models.Permit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.permits[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := *stored
	if err := fn(&working); err != nil {
		return nil, err
	}
	s.permits[id] = &working
	copied := working
	return &copied, nil
}
