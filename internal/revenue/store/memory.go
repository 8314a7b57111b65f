// Package store provides persistence for invoices and operator account
// balances, with in-memory and Postgres implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JRosan/fop-system-sub004/internal/revenue/models"
	"github.com/JRosan/fop-system-sub004/pkg/money"
	"github.com/JRosan/fop-system-sub004/pkg/platform/sentinel"
)

// InMemoryInvoiceStore keeps invoices in memory. Execute holds the lock
// across validate-and-mutate so concurrent operations on one invoice
// serialize.
type InMemoryInvoiceStore struct {
	mu       sync.RWMutex
	invoices map[uuid.UUID]*models.Invoice
	sequence int64
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{invoices: make(map[uuid.UUID]*models.Invoice)}
}

// NextSequence reserves the next invoice-number sequence value.
func (s *InMemoryInvoiceStore) NextSequence(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence++
	return s.sequence, nil
}

func (s *InMemoryInvoiceStore) Create(_ context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.invoices[inv.ID]; exists {
		return sentinel.ErrConflict
	}
	s.invoices[inv.ID] = cloneInvoice(inv)
	return nil
}

func (s *InMemoryInvoiceStore) FindByID(_ context.Context, id uuid.UUID) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneInvoice(inv), nil
}

// ListPastDue returns Pending or PartiallyPaid invoices whose due date has
// passed. The overdue job marks these; already-Overdue invoices are excluded
// so reprocessing is a no-op.
func (s *InMemoryInvoiceStore) ListPastDue(_ context.Context, now time.Time) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Invoice
	for _, inv := range s.invoices {
		if inv.Status != models.InvoicePending && inv.Status != models.InvoicePartiallyPaid {
			continue
		}
		if inv.DueDate != nil && now.After(*inv.DueDate) {
			out = append(out, cloneInvoice(inv))
		}
	}
	return out, nil
}

// ListOverdue returns all Overdue invoices for interest accrual.
func (s *InMemoryInvoiceStore) ListOverdue(_ context.Context) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Invoice
	for _, inv := range s.invoices {
		if inv.Status == models.InvoiceOverdue {
			out = append(out, cloneInvoice(inv))
		}
	}
	return out, nil
}

// Execute runs an atomic read-modify-write on one invoice.
func (s *InMemoryInvoiceStore) Execute(_ context.Context, id uuid.UUID, fn func(inv *models.Invoice) error) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.invoices[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := cloneInvoice(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	s.invoices[id] = working
	return cloneInvoice(working), nil
}

func cloneInvoice(inv *models.Invoice) *models.Invoice {
	copied := *inv
	copied.LineItems = append([]models.LineItem(nil), inv.LineItems...)
	copied.Payments = append([]models.LedgerPayment(nil), inv.Payments...)
	if inv.DueDate != nil {
		due := *inv.DueDate
		copied.DueDate = &due
	}
	if inv.FinalizedAt != nil {
		at := *inv.FinalizedAt
		copied.FinalizedAt = &at
	}
	return &copied
}

// InMemoryBalanceStore keeps operator account balances in memory, created
// lazily on first use.
type InMemoryBalanceStore struct {
	mu       sync.RWMutex
	balances map[uuid.UUID]*models.OperatorAccountBalance
}

func NewInMemoryBalanceStore() *InMemoryBalanceStore {
	return &InMemoryBalanceStore{balances: make(map[uuid.UUID]*models.OperatorAccountBalance)}
}

// FindByOperator returns the operator's balance record. Absence is a fact,
// not an error state the gate treats as debt: callers check sentinel.ErrNotFound.
func (s *InMemoryBalanceStore) FindByOperator(_ context.Context, operatorID uuid.UUID) (*models.OperatorAccountBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	balance, ok := s.balances[operatorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *balance
	return &copied, nil
}

// Execute runs an atomic read-modify-write on one operator's balance,
// creating the record lazily if it does not exist yet.
func (s *InMemoryBalanceStore) Execute(_ context.Context, tenantID, operatorID uuid.UUID, currency money.Currency, now time.Time, fn func(b *models.OperatorAccountBalance) error) (*models.OperatorAccountBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.balances[operatorID]
	if !ok {
		stored = models.NewOperatorAccountBalance(tenantID, operatorID, currency, now)
	}
	working := *stored
	if err := fn(&working); err != nil {
		return nil, err
	}
	s.balances[operatorID] = &working
	copied := working
	return &copied, nil
}
