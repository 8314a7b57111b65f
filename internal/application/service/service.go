// Package service orchestrates the permit-application workflow: document and
// payment verification, the waiver sub-workflow, fee overrides, and the
// debt-gated approval that issues a permit.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appmetrics "github.com/JRosan/fop-system-sub004/internal/application/metrics"
	"github.com/JRosan/fop-system-sub004/internal/application/models"
	"github.com/JRosan/fop-system-sub004/internal/feecalc"
	"github.com/JRosan/fop-system-sub004/internal/notification"
	permitmodels "github.com/JRosan/fop-system-sub004/internal/permit/models"
	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
	"github.com/JRosan/fop-system-sub004/pkg/platform/sentinel"
	"github.com/JRosan/fop-system-sub004/pkg/platform/tx"
	"github.com/JRosan/fop-system-sub004/pkg/requestcontext"
)

// Store is the application persistence port.
type Store interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	ListByOperator(ctx context.Context, operatorID uuid.UUID) ([]*models.Application, error)
	Execute(ctx context.Context, id uuid.UUID, fn func(app *models.Application) error) (*models.Application, error)
}

// PermitIssuer is the issuance gate: it checks the operator's account balance
// (unless bypassed) and creates the permit, or fails with
// Permit.BlockedDueToDebt.
type PermitIssuer interface {
	IssueForApplication(ctx context.Context, app *models.Application, bypass bool, bypassJustification string) (*permitmodels.Permit, error)
}

// ApproveOptions carries the audited debt-gate bypass.
type ApproveOptions struct {
	Bypass              bool
	BypassJustification string
}

type serviceConfig struct {
	logger   *log.Logger
	metrics  *appmetrics.Metrics
	notifier notification.Notifier
}

// Option configures optional service collaborators.
type Option func(*serviceConfig)

func WithLogger(l *log.Logger) Option {
	return func(c *serviceConfig) { c.logger = l }
}

func WithMetrics(m *appmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithNotifier(n notification.Notifier) Option {
	return func(c *serviceConfig) { c.notifier = n }
}

// Service is the application-workflow orchestrator. Every mutating operation
// runs inside the unit of work so aggregate changes commit together and
// domain events dispatch only after the commit.
type Service struct {
	apps     Store
	fees     *feecalc.Engine
	issuer   PermitIssuer
	tx       tx.UnitOfWork
	logger   *log.Logger
	metrics  *appmetrics.Metrics
	notifier notification.Notifier
}

func New(apps Store, fees *feecalc.Engine, issuer PermitIssuer, uow tx.UnitOfWork, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}
	return &Service{
		apps:     apps,
		fees:     fees,
		issuer:   issuer,
		tx:       uow,
		logger:   cfg.logger,
		metrics:  cfg.metrics,
		notifier: cfg.notifier,
	}
}

// CreateDraftInput is the validated shape for opening an application.
type CreateDraftInput struct {
	OperatorID     uuid.UUID
	AircraftID     uuid.UUID
	Type           models.Type
	Flight         models.FlightDetails
	RequestedFrom  time.Time
	RequestedUntil time.Time
}

// CreateDraft rates the application and stores it in Draft state.
func (s *Service) CreateDraft(ctx context.Context, in CreateDraftInput) (*models.Application, error) {
	breakdown, err := s.fees.Calculate(ctx, feecalc.Input{
		Type:      feecalc.ApplicationType(in.Type),
		SeatCount: in.Flight.SeatCount,
		MTOW:      in.Flight.MTOW,
	})
	if err != nil {
		return nil, err
	}

	app, err := models.New(
		requestcontext.TenantID(ctx),
		in.OperatorID, in.AircraftID, in.Type, in.Flight,
		in.RequestedFrom, in.RequestedUntil,
		breakdown.Total, requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.apps.Create(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create application")
	}
	return app, nil
}

// Get loads one application.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, id)
	}
	return app, nil
}

// AttachDocument records an uploaded document's storage URL and metadata.
func (s *Service) AttachDocument(ctx context.Context, id uuid.UUID, docType models.DocumentType, url string, expiry *time.Time) (*models.Application, error) {
	return s.execute(ctx, id, func(app *models.Application) error {
		_, err := app.AttachDocument(docType, url, expiry, requestcontext.Now(ctx))
		return err
	})
}

// Submit freezes the calculated fee and hands the application to review.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, operatorEmail string) (*models.Application, error) {
	var app *models.Application
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var execErr error
		app, execErr = s.apps.Execute(txCtx, id, func(a *models.Application) error {
			return a.Submit(operatorEmail, requestcontext.Now(txCtx))
		})
		if execErr != nil {
			return wrapStoreErr(execErr, id)
		}
		tx.Collect(txCtx, tx.Event{
			Kind: "application.submitted",
			Key:  app.ID.String(),
			Payload: map[string]any{
				"operator_id":    app.OperatorID.String(),
				"calculated_fee": app.CalculatedFee.String(),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Submitted.Inc()
	}
	s.notify(ctx, "application submitted", func() error {
		return s.notifier.ApplicationSubmitted(ctx, notification.ApplicationSubmittedParams{
			ApplicationID: app.ID,
			OperatorID:    app.OperatorID,
			OperatorEmail: app.ContactEmail,
			Fee:           app.CalculatedFee,
		})
	})
	s.notify(ctx, "officer new application", func() error {
		return s.notifier.OfficerNewApplication(ctx, notification.OfficerNewApplicationParams{
			ApplicationID: app.ID,
			OperatorID:    app.OperatorID,
			Type:          string(app.Type),
			SubmittedAt:   app.UpdatedAt,
		})
	})
	return app, nil
}

// StartReview assigns a reviewing officer.
func (s *Service) StartReview(ctx context.Context, id uuid.UUID, reviewerID string) (*models.Application, error) {
	return s.execute(ctx, id, func(app *models.Application) error {
		return app.StartReview(reviewerID, requestcontext.Now(ctx))
	})
}

// VerifyDocument marks one document verified.
func (s *Service) VerifyDocument(ctx context.Context, id, docID uuid.UUID, verifier string) (*models.Application, error) {
	return s.execute(ctx, id, func(app *models.Application) error {
		return app.VerifyDocument(docID, verifier, requestcontext.Now(ctx))
	})
}

// RejectDocument marks one document rejected with a mandatory reason.
func (s *Service) RejectDocument(ctx context.Context, id, docID uuid.UUID, verifier, reason string) (*models.Application, error) {
	return s.execute(ctx, id, func(app *models.Application) error {
		return app.RejectDocument(docID, verifier, reason, requestcontext.Now(ctx))
	})
}

// RequestPayment opens the fee payment once every required document is
// verified.
func (s *Service) RequestPayment(ctx context.Context, id uuid.UUID, method models.PaymentMethod) (*models.Application, error) {
	return s.execute(ctx, id, func(app *models.Application) error {
		return app.RequestPayment(method, requestcontext.Now(ctx))
	})
}

// CompletePayment settles the fee payment and raises PaymentCompleted.
func (s *Service) CompletePayment(ctx context.Context, id uuid.UUID, transactionRef, receiptNumber string) (*models.Application, error) {
	var app *models.Application
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var execErr error
		app, execErr = s.apps.Execute(txCtx, id, func(a *models.Application) error {
			return a.CompletePayment(transactionRef, receiptNumber, requestcontext.Now(txCtx))
		})
		if execErr != nil {
			return wrapStoreErr(execErr, id)
		}
		tx.Collect(txCtx, tx.Event{
			Kind: "application.payment_completed",
			Key:  app.ID.String(),
			Payload: map[string]any{
				"amount":  app.Payment.Amount.String(),
				"receipt": receiptNumber,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Approve runs the issuance gate and, if the operator is eligible (or the
// gate is bypassed), transitions to Approved and issues the permit. On a debt
// block the application is left untouched and no permit exists.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, approver, notes string, opts ApproveOptions) (*models.Application, *permitmodels.Permit, error) {
	start := time.Now()
	var (
		app    *models.Application
		permit *permitmodels.Permit
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var execErr error
		app, execErr = s.apps.Execute(txCtx, id, func(a *models.Application) error {
			if err := a.CanApprove(); err != nil {
				return err
			}
			issued, err := s.issuer.IssueForApplication(txCtx, a, opts.Bypass, opts.BypassJustification)
			if err != nil {
				return err
			}
			permit = issued
			a.ApplyApproval(approver, notes, requestcontext.Now(txCtx))
			return nil
		})
		if execErr != nil {
			return wrapStoreErr(execErr, id)
		}
		tx.Collect(txCtx, tx.Event{
			Kind: "application.approved",
			Key:  app.ID.String(),
			Payload: map[string]any{
				"permit_number": permit.Number,
				"approved_by":   approver,
			},
		})
		return nil
	})
	if err != nil {
		if s.metrics != nil && dErrors.HasCode(err, permitmodels.CodeBlockedDueToDebt) {
			s.metrics.BlockedByDebt.Inc()
		}
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.Approved.Inc()
		s.metrics.ObserveApprove(start)
	}
	s.notify(ctx, "application approved", func() error {
		return s.notifier.ApplicationApproved(ctx, notification.ApplicationDecisionParams{
			ApplicationID: app.ID,
			OperatorEmail: app.ContactEmail,
			PermitNumber:  permit.Number,
		})
	})
	return app, permit, nil
}

// Reject declines the application; it always succeeds once a completed
// payment exists.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, rejecter, reason string) (*models.Application, error) {
	var app *models.Application
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var execErr error
		app, execErr = s.apps.Execute(txCtx, id, func(a *models.Application) error {
			return a.Reject(rejecter, reason, requestcontext.Now(txCtx))
		})
		if execErr != nil {
			return wrapStoreErr(execErr, id)
		}
		tx.Collect(txCtx, tx.Event{
			Kind:    "application.rejected",
			Key:     app.ID.String(),
			Payload: map[string]any{"reason": reason},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Rejected.Inc()
	}
	s.notify(ctx, "application rejected", func() error {
		return s.notifier.ApplicationRejected(ctx, notification.ApplicationDecisionParams{
			ApplicationID: app.ID,
			OperatorEmail: app.ContactEmail,
			Reason:        reason,
		})
	})
	return app, nil
}

// Cancel withdraws the application from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return s.execute(ctx, id, func(app *models.Application) error {
		return app.Cancel(requestcontext.Now(ctx))
	})
}

// OverrideFee replaces the calculated fee with an audited manual amount.
func (s *Service) OverrideFee(ctx context.Context, id uuid.UUID, amount string, currency money.Currency, overriddenBy, justification string) (*models.Application, error) {
	fee, err := money.New(amount, currency)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, id, func(app *models.Application) error {
		return app.OverrideFee(fee, overriddenBy, justification, requestcontext.Now(ctx))
	})
}

// RequestWaiver opens a fee-waiver request.
func (s *Service) RequestWaiver(ctx context.Context, id uuid.UUID, waiverType models.WaiverType, reason, requester string) (*models.Application, error) {
	return s.execute(ctx, id, func(app *models.Application) error {
		_, err := app.RequestWaiver(waiverType, reason, requester, requestcontext.Now(ctx))
		return err
	})
}

// ApproveWaiver grants a waiver at the given percentage (0–100).
func (s *Service) ApproveWaiver(ctx context.Context, id, waiverID uuid.UUID, approver string, percentage decimal.Decimal) (*models.Application, error) {
	return s.execute(ctx, id, func(app *models.Application) error {
		return app.ApproveWaiver(waiverID, approver, percentage, requestcontext.Now(ctx))
	})
}

// RejectWaiver declines a waiver with a reasoned explanation.
func (s *Service) RejectWaiver(ctx context.Context, id, waiverID uuid.UUID, rejecter, reason string) (*models.Application, error) {
	return s.execute(ctx, id, func(app *models.Application) error {
		return app.RejectWaiver(waiverID, rejecter, reason, requestcontext.Now(ctx))
	})
}

// execute wraps a plain aggregate mutation in the unit of work.
func (s *Service) execute(ctx context.Context, id uuid.UUID, fn func(app *models.Application) error) (*models.Application, error) {
	var app *models.Application
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var execErr error
		app, execErr = s.apps.Execute(txCtx, id, fn)
		if execErr != nil {
			return wrapStoreErr(execErr, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// notify runs a fire-and-forget notification; failures are logged, never
// propagated.
func (s *Service) notify(_ context.Context, what string, fn func() error) {
	if s.notifier == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Printf("notification failed (%s): %v", what, err)
	}
}

func wrapStoreErr(err error, id uuid.UUID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "application %s not found", id)
	}
	return err
}
