// Package notification defines the outbound notification boundary. Delivery
// mechanics (email templates, SMS gateways) live outside the core; callers
// treat every send as fire-and-forget and swallow failures.
package notification

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/JRosan/fop-system-sub004/pkg/money"
)

// ApplicationSubmittedParams announces a new application to the operator and
// the reviewing officers.
type ApplicationSubmittedParams struct {
	ApplicationID uuid.UUID
	OperatorID    uuid.UUID
	OperatorEmail string
	Fee           money.Money
}

// OfficerNewApplicationParams alerts the reviewing officers that a submitted
// application is waiting for review.
type OfficerNewApplicationParams struct {
	ApplicationID uuid.UUID
	OperatorID    uuid.UUID
	Type          string
	SubmittedAt   time.Time
}

// ApplicationDecisionParams covers both approval and rejection notices.
type ApplicationDecisionParams struct {
	ApplicationID uuid.UUID
	OperatorEmail string
	PermitNumber  string // empty on rejection
	Reason        string // empty on approval
}

// InsuranceExpiryWarningParams is sent once per permit per threshold day.
type InsuranceExpiryWarningParams struct {
	PermitID      uuid.UUID
	PermitNumber  string
	OperatorEmail string
	ExpiresAt     time.Time
	DaysRemaining int
}

// InvoiceOverdueParams is sent when the overdue job marks an invoice.
type InvoiceOverdueParams struct {
	InvoiceID     uuid.UUID
	InvoiceNumber string
	OperatorID    uuid.UUID
	BalanceDue    money.Money
	DueDate       time.Time
}

// PaymentConfirmationParams acknowledges a recorded ledger payment.
type PaymentConfirmationParams struct {
	InvoiceNumber string
	ReceiptNumber string
	Amount        money.Money
}

// Notifier is the fire-and-forget notification sender. Implementations must
// not block on delivery; callers log and ignore errors.
type Notifier interface {
	ApplicationSubmitted(ctx context.Context, p ApplicationSubmittedParams) error
	OfficerNewApplication(ctx context.Context, p OfficerNewApplicationParams) error
	ApplicationApproved(ctx context.Context, p ApplicationDecisionParams) error
	ApplicationRejected(ctx context.Context, p ApplicationDecisionParams) error
	InsuranceExpiryWarning(ctx context.Context, p InsuranceExpiryWarningParams) error
	InvoiceOverdue(ctx context.Context, p InvoiceOverdueParams) error
	PaymentConfirmation(ctx context.Context, p PaymentConfirmationParams) error
}

// LogNotifier writes notifications to the process log. It stands in for the
// real delivery service in development and tests.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ApplicationSubmitted(_ context.Context, p ApplicationSubmittedParams) error {
	n.logger.Printf("notify: application %s submitted, fee %s", p.ApplicationID, p.Fee)
	return nil
}

func (n *LogNotifier) OfficerNewApplication(_ context.Context, p OfficerNewApplicationParams) error {
	n.logger.Printf("notify officers: %s application %s from operator %s awaits review", p.Type, p.ApplicationID, p.OperatorID)
	return nil
}

func (n *LogNotifier) ApplicationApproved(_ context.Context, p ApplicationDecisionParams) error {
	n.logger.Printf("notify: application %s approved, permit %s", p.ApplicationID, p.PermitNumber)
	return nil
}

func (n *LogNotifier) ApplicationRejected(_ context.Context, p ApplicationDecisionParams) error {
	n.logger.Printf("notify: application %s rejected: %s", p.ApplicationID, p.Reason)
	return nil
}

func (n *LogNotifier) InsuranceExpiryWarning(_ context.Context, p InsuranceExpiryWarningParams) error {
	n.logger.Printf("notify: permit %s expires in %d days", p.PermitNumber, p.DaysRemaining)
	return nil
}

func (n *LogNotifier) InvoiceOverdue(_ context.Context, p InvoiceOverdueParams) error {
	n.logger.Printf("notify: invoice %s overdue, balance %s", p.InvoiceNumber, p.BalanceDue)
	return nil
}

func (n *LogNotifier) PaymentConfirmation(_ context.Context, p PaymentConfirmationParams) error {
	n.logger.Printf("notify: payment %s received for invoice %s", p.Amount, p.InvoiceNumber)
	return nil
}
