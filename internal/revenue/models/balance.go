package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
)

// OperatorAccountBalance is the per-operator running total of debt and
// overdue exposure. It is created lazily on the operator's first invoice and
// mutated exclusively through the four named operations below; the issuance
// gate only ever reads it.
type OperatorAccountBalance struct {
	OperatorID          uuid.UUID
	TenantID            uuid.UUID
	CurrentBalance      money.Money
	TotalOverdue        money.Money
	OverdueInvoiceCount int
	UpdatedAt           time.Time
}

// NewOperatorAccountBalance opens a zeroed balance record.
func NewOperatorAccountBalance(tenantID, operatorID uuid.UUID, currency money.Currency, now time.Time) *OperatorAccountBalance {
	return &OperatorAccountBalance{
		OperatorID:     operatorID,
		TenantID:       tenantID,
		CurrentBalance: money.Zero(currency),
		TotalOverdue:   money.Zero(currency),
		UpdatedAt:      now,
	}
}

// RecordInvoiceFinalized adds a finalized invoice's total to the operator's
// outstanding balance.
func (b *OperatorAccountBalance) RecordInvoiceFinalized(amount money.Money, now time.Time) error {
	updated, err := b.CurrentBalance.Add(amount)
	if err != nil {
		return err
	}
	b.CurrentBalance = updated
	b.UpdatedAt = now
	return nil
}

// RecordPayment reduces the outstanding balance.
func (b *OperatorAccountBalance) RecordPayment(amount money.Money, now time.Time) error {
	updated, err := b.CurrentBalance.Sub(amount)
	if err != nil {
		return err
	}
	b.CurrentBalance = updated
	b.UpdatedAt = now
	return nil
}

// RecordInvoiceOverdue moves an invoice's balance due into the overdue total.
func (b *OperatorAccountBalance) RecordInvoiceOverdue(amount money.Money, now time.Time) error {
	updated, err := b.TotalOverdue.Add(amount)
	if err != nil {
		return err
	}
	b.TotalOverdue = updated
	b.OverdueInvoiceCount++
	b.UpdatedAt = now
	return nil
}

// RecordOverdueCleared removes a settled overdue invoice from the exposure
// totals. Clearing more than is currently recorded is a logic error.
func (b *OperatorAccountBalance) RecordOverdueCleared(amount money.Money, now time.Time) error {
	updated, err := b.TotalOverdue.Sub(amount)
	if err != nil {
		return err
	}
	if updated.IsNegative() {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"clearing %s would drive total overdue below zero (currently %s)", amount, b.TotalOverdue)
	}
	if b.OverdueInvoiceCount <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "no overdue invoices to clear")
	}
	b.TotalOverdue = updated
	b.OverdueInvoiceCount--
	b.UpdatedAt = now
	return nil
}

// RecordInterestCharge grows both the outstanding balance and the overdue
// exposure.
func (b *OperatorAccountBalance) RecordInterestCharge(amount money.Money, now time.Time) error {
	balance, err := b.CurrentBalance.Add(amount)
	if err != nil {
		return err
	}
	overdue, err := b.TotalOverdue.Add(amount)
	if err != nil {
		return err
	}
	b.CurrentBalance = balance
	b.TotalOverdue = overdue
	b.UpdatedAt = now
	return nil
}

// EligibilityPolicy holds the permit-issuance thresholds.
type EligibilityPolicy struct {
	MaxOverdueAmount   money.Money
	MaxOverdueInvoices int
}

// EligibilityDecision is the gate's verdict over one balance record.
type EligibilityDecision struct {
	Eligible     bool
	BlockReasons []string
}

// Evaluate applies the policy thresholds to the balance.
func (p EligibilityPolicy) Evaluate(b *OperatorAccountBalance) EligibilityDecision {
	var reasons []string
	if b.TotalOverdue.Cmp(p.MaxOverdueAmount) > 0 {
		reasons = append(reasons, fmt.Sprintf("outstanding overdue debt of %s exceeds the allowed %s",
			b.TotalOverdue, p.MaxOverdueAmount))
	}
	if b.OverdueInvoiceCount > p.MaxOverdueInvoices {
		reasons = append(reasons, fmt.Sprintf("%d overdue invoices exceed the allowed %d",
			b.OverdueInvoiceCount, p.MaxOverdueInvoices))
	}
	return EligibilityDecision{Eligible: len(reasons) == 0, BlockReasons: reasons}
}
