// Package models holds the revenue-ledger aggregates: per-flight invoices and
// per-operator account balances.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
)

// Stable error codes raised by the invoice aggregate.
const (
	CodeFinalizeError           dErrors.Code = "Invoice.FinalizeError"
	CodeInvoiceInvalidOperation dErrors.Code = "Invoice.InvalidOperation"
	CodePaymentInvalidOperation dErrors.Code = "Payment.InvalidOperation"
)

// InvoiceStatus is derived deterministically from amountPaid vs totalAmount
// and overdue marking; it is never stored out of sync with the amounts.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "draft"
	InvoicePending       InvoiceStatus = "pending"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceOverdue       InvoiceStatus = "overdue"
	InvoiceCancelled     InvoiceStatus = "cancelled"
)

// FeeCategory classifies a charge line. CategoryInterest is reserved for
// interest charges appended by the overdue job.
type FeeCategory string

const (
	CategoryLanding          FeeCategory = "landing"
	CategoryNavigation       FeeCategory = "navigation"
	CategoryParking          FeeCategory = "parking"
	CategorySecurity         FeeCategory = "security"
	CategoryPassengerService FeeCategory = "passenger_service"
	CategoryInterest         FeeCategory = "interest"
)

// OperationType classifies the flight for fee-rate selection.
type OperationType string

const (
	OpGeneralAviation OperationType = "general_aviation"
	OpCharter         OperationType = "charter"
	OpScheduled       OperationType = "scheduled"
	OpCargo           OperationType = "cargo"
	OpEmergency       OperationType = "emergency"
)

// LineItem is one charge on an invoice.
type LineItem struct {
	ID               uuid.UUID
	Category         FeeCategory
	Description      string
	Quantity         decimal.Decimal
	Unit             string // optional, e.g. "tonne", "passenger"
	UnitRate         money.Money
	Amount           money.Money
	IsInterestCharge bool
	CreatedAt        time.Time
}

// LedgerPaymentStatus tracks a recorded ledger payment.
type LedgerPaymentStatus string

const (
	LedgerPaymentRecorded LedgerPaymentStatus = "recorded"
	LedgerPaymentReversed LedgerPaymentStatus = "reversed"
)

// LedgerPayment is a payment against an invoice. Distinct from the permit
// application's single fee payment.
type LedgerPayment struct {
	ID             uuid.UUID
	Amount         money.Money
	Method         string
	Status         LedgerPaymentStatus
	TransactionRef string
	PaymentDate    time.Time
	ReceiptNumber  string
	RecordedBy     string
	RecordedAt     time.Time
	Notes          string
}

// FlightInfo is the flight metadata an invoice bills for.
type FlightInfo struct {
	Airport        string
	OperationType  OperationType
	FlightDate     time.Time
	AircraftID     uuid.UUID
	MTOW           money.Weight
	SeatCount      int
	PassengerCount int
}

// Invoice is the per-flight revenue aggregate. It owns its line items and
// payments.
//
// Invariants:
//   - balanceDue = totalAmount − amountPaid, always ≥ 0
//   - totalAmount = subtotal + totalInterest
//   - amountPaid is non-decreasing
type Invoice struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Number     string
	OperatorID uuid.UUID
	Status     InvoiceStatus
	Flight     FlightInfo

	LineItems []LineItem
	Payments  []LedgerPayment

	Subtotal      money.Money
	TotalInterest money.Money
	TotalAmount   money.Money
	AmountPaid    money.Money

	// OverdueRecorded is the exposure currently recorded against the
	// operator's account balance for this invoice: the balance due at the
	// moment it was marked overdue plus interest charged since. It is the
	// exact amount RecordOverdueCleared removes when the invoice is settled.
	OverdueRecorded money.Money

	InvoiceDate time.Time
	DueDate     *time.Time
	FinalizedBy string
	FinalizedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewInvoice constructs a Draft invoice with zeroed amounts in the given
// currency.
func NewInvoice(tenantID, operatorID uuid.UUID, number string, flight FlightInfo, currency money.Currency, now time.Time) (*Invoice, error) {
	if tenantID == (uuid.UUID{}) {
		return nil, dErrors.New(dErrors.CodeValidation, "tenant ID is required")
	}
	if operatorID == (uuid.UUID{}) {
		return nil, dErrors.New(dErrors.CodeValidation, "operator ID is required")
	}
	if number == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "invoice number is required")
	}
	zero := money.Zero(currency)
	return &Invoice{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Number:          number,
		OperatorID:      operatorID,
		Status:          InvoiceDraft,
		Flight:          flight,
		Subtotal:        zero,
		TotalInterest:   zero,
		TotalAmount:     zero,
		AmountPaid:      zero,
		OverdueRecorded: zero,
		InvoiceDate:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// BalanceDue returns totalAmount − amountPaid. The recompute step keeps it
// non-negative.
func (inv *Invoice) BalanceDue() money.Money {
	due, err := inv.TotalAmount.Sub(inv.AmountPaid)
	if err != nil {
		// Currencies are fixed at construction; a mismatch is a programming error.
		panic(err)
	}
	return due
}

// AddLineItem appends a charge while the invoice is Draft.
// amount = quantity × unitRate.
func (inv *Invoice) AddLineItem(category FeeCategory, description string, quantity decimal.Decimal, unit string, unitRate money.Money, now time.Time) error {
	if inv.Status != InvoiceDraft {
		return dErrors.New(CodeInvoiceInvalidOperation, "line items can only be added to a draft invoice")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return dErrors.New(dErrors.CodeValidation, "quantity must be positive")
	}
	inv.LineItems = append(inv.LineItems, LineItem{
		ID:          uuid.New(),
		Category:    category,
		Description: description,
		Quantity:    quantity,
		Unit:        unit,
		UnitRate:    unitRate,
		Amount:      unitRate.Mul(quantity).Round(),
		CreatedAt:   now,
	})
	inv.recompute(now)
	return nil
}

// Finalize moves Draft → Pending and stamps the due date.
func (inv *Invoice) Finalize(by string, dueDateOffsetDays int, now time.Time) error {
	if inv.Status != InvoiceDraft {
		return dErrors.New(CodeFinalizeError, "invoice is %s, only draft invoices can be finalized", inv.Status)
	}
	if len(inv.LineItems) == 0 {
		return dErrors.New(CodeFinalizeError, "cannot finalize an invoice with no line items")
	}
	due := inv.InvoiceDate.AddDate(0, 0, dueDateOffsetDays)
	inv.Status = InvoicePending
	inv.DueDate = &due
	inv.FinalizedBy = by
	inv.FinalizedAt = &now
	inv.UpdatedAt = now
	return nil
}

// RecordPayment appends a payment and rederives the status: Paid when the
// balance reaches zero, otherwise PartiallyPaid — except an Overdue invoice
// stays Overdue until fully paid.
func (inv *Invoice) RecordPayment(amount money.Money, method, transactionRef, receiptNumber, recordedBy, notes string, now time.Time) (*LedgerPayment, error) {
	switch inv.Status {
	case InvoicePending, InvoicePartiallyPaid, InvoiceOverdue:
	default:
		return nil, dErrors.New(CodePaymentInvalidOperation, "cannot record a payment on a %s invoice", inv.Status)
	}
	if !amount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeValidation, "payment amount must be positive")
	}
	if amount.Cmp(inv.BalanceDue()) > 0 {
		return nil, dErrors.New(CodePaymentInvalidOperation,
			"payment %s exceeds balance due %s", amount, inv.BalanceDue())
	}

	payment := LedgerPayment{
		ID:             uuid.New(),
		Amount:         amount,
		Method:         method,
		Status:         LedgerPaymentRecorded,
		TransactionRef: transactionRef,
		PaymentDate:    now,
		ReceiptNumber:  receiptNumber,
		RecordedBy:     recordedBy,
		RecordedAt:     now,
		Notes:          notes,
	}
	inv.Payments = append(inv.Payments, payment)

	paid, err := inv.AmountPaid.Add(amount)
	if err != nil {
		return nil, err
	}
	inv.AmountPaid = paid
	inv.deriveStatusAfterPayment()
	inv.recompute(now)
	return &inv.Payments[len(inv.Payments)-1], nil
}

// MarkOverdue moves a Pending or PartiallyPaid invoice past its due date to
// Overdue.
func (inv *Invoice) MarkOverdue(now time.Time) error {
	if inv.Status != InvoicePending && inv.Status != InvoicePartiallyPaid {
		return dErrors.New(CodeInvoiceInvalidOperation, "cannot mark a %s invoice overdue", inv.Status)
	}
	if inv.DueDate == nil || !now.After(*inv.DueDate) {
		return dErrors.New(CodeInvoiceInvalidOperation, "invoice is not past its due date")
	}
	inv.Status = InvoiceOverdue
	inv.OverdueRecorded = inv.BalanceDue()
	inv.UpdatedAt = now
	return nil
}

// AddInterestCharge appends an interest line item. Interest only ever applies
// to an Overdue invoice; attempting it on Pending is an explicit error.
func (inv *Invoice) AddInterestCharge(amount money.Money, description string, now time.Time) error {
	if inv.Status != InvoiceOverdue {
		return dErrors.New(CodeInvoiceInvalidOperation,
			"interest applies only to overdue invoices, invoice is %s", inv.Status)
	}
	if !amount.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "interest amount must be positive")
	}
	inv.LineItems = append(inv.LineItems, LineItem{
		ID:               uuid.New(),
		Category:         CategoryInterest,
		Description:      description,
		Quantity:         decimal.NewFromInt(1),
		UnitRate:         amount,
		Amount:           amount,
		IsInterestCharge: true,
		CreatedAt:        now,
	})
	recorded, err := inv.OverdueRecorded.Add(amount)
	if err != nil {
		return err
	}
	inv.OverdueRecorded = recorded
	inv.recompute(now)
	return nil
}

// Cancel voids a Draft or Pending invoice with nothing paid against it.
func (inv *Invoice) Cancel(now time.Time) error {
	if inv.Status != InvoiceDraft && inv.Status != InvoicePending {
		return dErrors.New(CodeInvoiceInvalidOperation, "cannot cancel a %s invoice", inv.Status)
	}
	if !inv.AmountPaid.IsZero() {
		return dErrors.New(CodeInvoiceInvalidOperation, "cannot cancel an invoice with recorded payments")
	}
	inv.Status = InvoiceCancelled
	inv.UpdatedAt = now
	return nil
}

// ClearOverdueExposure zeroes the recorded exposure once the operator's
// balance has been credited, returning the amount that was recorded.
func (inv *Invoice) ClearOverdueExposure() money.Money {
	recorded := inv.OverdueRecorded
	inv.OverdueRecorded = money.Zero(recorded.Currency())
	return recorded
}

// LatestInterestCharge returns the most recent interest line item, or nil.
// The overdue job uses its age as the accrual-cadence guard.
func (inv *Invoice) LatestInterestCharge() *LineItem {
	var latest *LineItem
	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		if !item.IsInterestCharge {
			continue
		}
		if latest == nil || item.CreatedAt.After(latest.CreatedAt) {
			latest = item
		}
	}
	return latest
}

// DaysOverdue returns whole days past the due date, zero if not past due.
func (inv *Invoice) DaysOverdue(now time.Time) int {
	if inv.DueDate == nil || !now.After(*inv.DueDate) {
		return 0
	}
	return int(now.Sub(*inv.DueDate).Hours() / 24)
}

// deriveStatusAfterPayment applies the payment status rules.
func (inv *Invoice) deriveStatusAfterPayment() {
	if inv.BalanceDue().IsZero() {
		inv.Status = InvoicePaid
		return
	}
	if inv.Status != InvoiceOverdue {
		inv.Status = InvoicePartiallyPaid
	}
}

// recompute rederives subtotal, interest, and total from the line items.
func (inv *Invoice) recompute(now time.Time) {
	currency := inv.Subtotal.Currency()
	subtotal := money.Zero(currency)
	interest := money.Zero(currency)
	for _, item := range inv.LineItems {
		if item.IsInterestCharge {
			interest, _ = interest.Add(item.Amount)
		} else {
			subtotal, _ = subtotal.Add(item.Amount)
		}
	}
	total, _ := subtotal.Add(interest)
	inv.Subtotal = subtotal
	inv.TotalInterest = interest
	inv.TotalAmount = total
	inv.UpdatedAt = now
}

// DescribeFlight is a short human label used in notifications and logs.
func (inv *Invoice) DescribeFlight() string {
	parts := []string{inv.Flight.Airport, string(inv.Flight.OperationType)}
	return strings.Join(parts, " ")
}
