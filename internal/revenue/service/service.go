// Package service orchestrates the revenue ledger: invoice lifecycle,
// payments, overdue marking, interest accrual, and the operator account
// balance mutations those trigger.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JRosan/fop-system-sub004/internal/notification"
	revmetrics "github.com/JRosan/fop-system-sub004/internal/revenue/metrics"
	"github.com/JRosan/fop-system-sub004/internal/revenue/models"
	"github.com/JRosan/fop-system-sub004/internal/revenue/schedule"
	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
	"github.com/JRosan/fop-system-sub004/pkg/platform/sentinel"
	"github.com/JRosan/fop-system-sub004/pkg/platform/tx"
	"github.com/JRosan/fop-system-sub004/pkg/requestcontext"
)

// InvoiceStore is the invoice persistence port.
type InvoiceStore interface {
	NextSequence(ctx context.Context) (int64, error)
	Create(ctx context.Context, inv *models.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListPastDue(ctx context.Context, now time.Time) ([]*models.Invoice, error)
	ListOverdue(ctx context.Context) ([]*models.Invoice, error)
	Execute(ctx context.Context, id uuid.UUID, fn func(inv *models.Invoice) error) (*models.Invoice, error)
}

// BalanceStore is the operator-account-balance persistence port. Execute
// creates the record lazily; the aggregate's four named mutators are the only
// way its fields change.
type BalanceStore interface {
	FindByOperator(ctx context.Context, operatorID uuid.UUID) (*models.OperatorAccountBalance, error)
	Execute(ctx context.Context, tenantID, operatorID uuid.UUID, currency money.Currency, now time.Time, fn func(b *models.OperatorAccountBalance) error) (*models.OperatorAccountBalance, error)
}

type serviceConfig struct {
	logger   *log.Logger
	metrics  *revmetrics.Metrics
	notifier notification.Notifier
}

// Option configures optional service collaborators.
type Option func(*serviceConfig)

func WithLogger(l *log.Logger) Option {
	return func(c *serviceConfig) { c.logger = l }
}

func WithMetrics(m *revmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithNotifier(n notification.Notifier) Option {
	return func(c *serviceConfig) { c.notifier = n }
}

// Service is the revenue-ledger orchestrator.
type Service struct {
	invoices InvoiceStore
	balances BalanceStore
	engine   *schedule.Engine
	tx       tx.UnitOfWork

	currency          money.Currency
	dueDateOffsetDays int

	logger   *log.Logger
	metrics  *revmetrics.Metrics
	notifier notification.Notifier
}

func New(invoices InvoiceStore, balances BalanceStore, engine *schedule.Engine, uow tx.UnitOfWork,
	currency money.Currency, dueDateOffsetDays int, opts ...Option) *Service {

	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}
	return &Service{
		invoices:          invoices,
		balances:          balances,
		engine:            engine,
		tx:                uow,
		currency:          currency,
		dueDateOffsetDays: dueDateOffsetDays,
		logger:            cfg.logger,
		metrics:           cfg.metrics,
		notifier:          cfg.notifier,
	}
}

// CreateInvoice opens a Draft invoice for a flight, pre-itemized from the fee
// schedule engine.
func (s *Service) CreateInvoice(ctx context.Context, operatorID uuid.UUID, flight models.FlightInfo) (*models.Invoice, error) {
	now := requestcontext.Now(ctx)

	seq, err := s.invoices.NextSequence(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "reserve invoice number")
	}
	number := fmt.Sprintf("INV-%06d", seq)

	inv, err := models.NewInvoice(requestcontext.TenantID(ctx), operatorID, number, flight, s.currency, now)
	if err != nil {
		return nil, err
	}

	lines, err := s.engine.CalculateCharges(ctx, flight, now)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if err := inv.AddLineItem(line.Category, line.Description, line.Quantity, line.Unit, line.UnitRate, now); err != nil {
			return nil, err
		}
	}

	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create invoice")
	}
	return inv, nil
}

// Get loads one invoice.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, wrapInvoiceErr(err, id)
	}
	return inv, nil
}

// AddLineItem appends a manual charge to a Draft invoice.
func (s *Service) AddLineItem(ctx context.Context, id uuid.UUID, category models.FeeCategory, description string, quantity decimal.Decimal, unit string, unitRate money.Money) (*models.Invoice, error) {
	inv, err := s.invoices.Execute(ctx, id, func(inv *models.Invoice) error {
		return inv.AddLineItem(category, description, quantity, unit, unitRate, requestcontext.Now(ctx))
	})
	if err != nil {
		return nil, wrapInvoiceErr(err, id)
	}
	return inv, nil
}

// Finalize moves the invoice to Pending and posts its total to the
// operator's account balance.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID, by string) (*models.Invoice, error) {
	var inv *models.Invoice
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)

		var execErr error
		inv, execErr = s.invoices.Execute(txCtx, id, func(inv *models.Invoice) error {
			return inv.Finalize(by, s.dueDateOffsetDays, now)
		})
		if execErr != nil {
			return wrapInvoiceErr(execErr, id)
		}

		_, execErr = s.balances.Execute(txCtx, inv.TenantID, inv.OperatorID, s.currency, now,
			func(b *models.OperatorAccountBalance) error {
				return b.RecordInvoiceFinalized(inv.TotalAmount, now)
			})
		if execErr != nil {
			return dErrors.Wrap(execErr, dErrors.CodeInternal, "post invoice to account balance")
		}

		tx.Collect(txCtx, tx.Event{
			Kind: "invoice.finalized",
			Key:  inv.ID.String(),
			Payload: map[string]any{
				"number": inv.Number,
				"total":  inv.TotalAmount.String(),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.InvoicesFinalized.Inc()
	}
	return inv, nil
}

// RecordPayment appends a payment, credits the operator's balance, and clears
// the invoice's overdue exposure once it is fully settled.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, amount money.Money, method, transactionRef, notes, recordedBy string) (*models.Invoice, error) {
	var (
		inv     *models.Invoice
		receipt string
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		receipt = fmt.Sprintf("RCT-%s", uuid.NewString()[:8])

		wasOverdue := false
		var cleared money.Money

		var execErr error
		inv, execErr = s.invoices.Execute(txCtx, id, func(inv *models.Invoice) error {
			wasOverdue = inv.Status == models.InvoiceOverdue
			if _, err := inv.RecordPayment(amount, method, transactionRef, receipt, recordedBy, notes, now); err != nil {
				return err
			}
			if wasOverdue && inv.Status == models.InvoicePaid {
				cleared = inv.ClearOverdueExposure()
			}
			return nil
		})
		if execErr != nil {
			return wrapInvoiceErr(execErr, id)
		}

		_, execErr = s.balances.Execute(txCtx, inv.TenantID, inv.OperatorID, s.currency, now,
			func(b *models.OperatorAccountBalance) error {
				if err := b.RecordPayment(amount, now); err != nil {
					return err
				}
				if wasOverdue && inv.Status == models.InvoicePaid {
					return b.RecordOverdueCleared(cleared, now)
				}
				return nil
			})
		if execErr != nil {
			return dErrors.Wrap(execErr, dErrors.CodeInternal, "credit account balance")
		}

		tx.Collect(txCtx, tx.Event{
			Kind: "invoice.payment_recorded",
			Key:  inv.ID.String(),
			Payload: map[string]any{
				"amount":  amount.String(),
				"receipt": receipt,
				"status":  string(inv.Status),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsRecorded.Inc()
	}
	s.notify("payment confirmation", func() error {
		return s.notifier.PaymentConfirmation(ctx, notification.PaymentConfirmationParams{
			InvoiceNumber: inv.Number,
			ReceiptNumber: receipt,
			Amount:        amount,
		})
	})
	return inv, nil
}

// MarkOverdue transitions a past-due invoice to Overdue, posts the exposure
// to the operator's balance, and sends the overdue notice. The overdue job
// calls this once per invoice; already-Overdue invoices never reach it.
func (s *Service) MarkOverdue(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var inv *models.Invoice
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)

		var execErr error
		inv, execErr = s.invoices.Execute(txCtx, id, func(inv *models.Invoice) error {
			return inv.MarkOverdue(now)
		})
		if execErr != nil {
			return wrapInvoiceErr(execErr, id)
		}

		_, execErr = s.balances.Execute(txCtx, inv.TenantID, inv.OperatorID, s.currency, now,
			func(b *models.OperatorAccountBalance) error {
				return b.RecordInvoiceOverdue(inv.OverdueRecorded, now)
			})
		if execErr != nil {
			return dErrors.Wrap(execErr, dErrors.CodeInternal, "post overdue exposure to account balance")
		}

		tx.Collect(txCtx, tx.Event{
			Kind:    "invoice.overdue",
			Key:     inv.ID.String(),
			Payload: map[string]any{"balance_due": inv.BalanceDue().String()},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.InvoicesOverdue.Inc()
	}
	s.notify("invoice overdue", func() error {
		due := time.Time{}
		if inv.DueDate != nil {
			due = *inv.DueDate
		}
		return s.notifier.InvoiceOverdue(ctx, notification.InvoiceOverdueParams{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.Number,
			OperatorID:    inv.OperatorID,
			BalanceDue:    inv.BalanceDue(),
			DueDate:       due,
		})
	})
	return inv, nil
}

// AccrueInterest appends one interest line item for the current accrual
// period and posts it to the operator's balance. The caller (the overdue job)
// enforces the 30-day cadence guard.
//
// Each accrual charges only the new period's increment: the cumulative
// interest on the outstanding principal, minus what previous accruals already
// charged. Total interest on an untouched invoice therefore tracks
// principal × ((1+rate)^months − 1) exactly, instead of compounding on top of
// already-charged interest.
func (s *Service) AccrueInterest(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var inv *models.Invoice
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)

		var charged money.Money
		var execErr error
		inv, execErr = s.invoices.Execute(txCtx, id, func(inv *models.Invoice) error {
			days := inv.DaysOverdue(now)
			principal, err := inv.BalanceDue().Sub(inv.TotalInterest)
			if err != nil {
				return err
			}
			accrued := s.engine.CalculateInterest(principal, days)
			interest, err := accrued.Sub(inv.TotalInterest)
			if err != nil {
				return err
			}
			if !interest.IsPositive() {
				return dErrors.New(models.CodeInvoiceInvalidOperation,
					"no interest due at %d days overdue", days)
			}
			charged = interest
			desc := fmt.Sprintf("overdue interest (%d days past due)", days)
			return inv.AddInterestCharge(interest, desc, now)
		})
		if execErr != nil {
			return wrapInvoiceErr(execErr, id)
		}

		_, execErr = s.balances.Execute(txCtx, inv.TenantID, inv.OperatorID, s.currency, now,
			func(b *models.OperatorAccountBalance) error {
				return b.RecordInterestCharge(charged, now)
			})
		if execErr != nil {
			return dErrors.Wrap(execErr, dErrors.CodeInternal, "post interest to account balance")
		}

		tx.Collect(txCtx, tx.Event{
			Kind:    "invoice.interest_charged",
			Key:     inv.ID.String(),
			Payload: map[string]any{"interest": charged.String()},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.InterestCharges.Inc()
	}
	return inv, nil
}

// Cancel voids a Draft or Pending invoice.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var inv *models.Invoice
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		wasPending := false

		var execErr error
		inv, execErr = s.invoices.Execute(txCtx, id, func(inv *models.Invoice) error {
			wasPending = inv.Status == models.InvoicePending
			return inv.Cancel(now)
		})
		if execErr != nil {
			return wrapInvoiceErr(execErr, id)
		}

		// A pending invoice was already posted to the balance; back it out.
		if wasPending {
			_, execErr = s.balances.Execute(txCtx, inv.TenantID, inv.OperatorID, s.currency, now,
				func(b *models.OperatorAccountBalance) error {
					return b.RecordPayment(inv.TotalAmount, now)
				})
			if execErr != nil {
				return dErrors.Wrap(execErr, dErrors.CodeInternal, "reverse cancelled invoice")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// notify runs a fire-and-forget notification; failures are logged, never
// propagated.
func (s *Service) notify(what string, fn func() error) {
	if s.notifier == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Printf("notification failed (%s): %v", what, err)
	}
}

func wrapInvoiceErr(err error, id uuid.UUID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "invoice %s not found", id)
	}
	return err
}
