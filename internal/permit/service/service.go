// Package service implements the permit issuance gate and the permit
// lifecycle operations. The gate couples the application workflow to the
// revenue ledger: an operator with overdue debt beyond the policy thresholds
// cannot be issued a permit.
package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	appmodels "github.com/JRosan/fop-system-sub004/internal/application/models"
	"github.com/JRosan/fop-system-sub004/internal/permit/models"
	revmodels "github.com/JRosan/fop-system-sub004/internal/revenue/models"
	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/platform/sentinel"
	"github.com/JRosan/fop-system-sub004/pkg/platform/tx"
	"github.com/JRosan/fop-system-sub004/pkg/requestcontext"
)

// Store is the permit persistence port.
type Store interface {
	NextSequence(ctx context.Context) (int64, error)
	Create(ctx context.Context, permit *models.Permit) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Permit, error)
	Execute(ctx context.Context, id uuid.UUID, fn func(p *models.Permit) error) (*models.Permit, error)
}

// BalanceReader is the gate's read-only view of the operator account balance.
type BalanceReader interface {
	FindByOperator(ctx context.Context, operatorID uuid.UUID) (*revmodels.OperatorAccountBalance, error)
}

// Service issues and administers permits.
type Service struct {
	permits  Store
	balances BalanceReader
	policy   revmodels.EligibilityPolicy
	logger   *log.Logger
}

func New(permits Store, balances BalanceReader, policy revmodels.EligibilityPolicy, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{permits: permits, balances: balances, policy: policy, logger: logger}
}

// IssueForApplication runs the eligibility gate and creates the permit.
//
// With bypass set, the balance lookup is skipped entirely; the bypass itself
// requires a justification and is audited via a domain event. Without bypass,
// a missing balance record means "no debt" and issuance proceeds; an
// ineligible balance fails with Permit.BlockedDueToDebt carrying the
// outstanding amount and block reasons, and no permit is created.
func (s *Service) IssueForApplication(ctx context.Context, app *appmodels.Application, bypass bool, bypassJustification string) (*models.Permit, error) {
	if bypass {
		if strings.TrimSpace(bypassJustification) == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "debt-gate bypass requires a justification")
		}
		tx.Collect(ctx, tx.Event{
			Kind: "permit.debt_gate_bypassed",
			Key:  app.ID.String(),
			Payload: map[string]any{
				"operator_id":   app.OperatorID.String(),
				"justification": bypassJustification,
				"actor":         requestcontext.ActorID(ctx),
			},
		})
	} else {
		balance, err := s.balances.FindByOperator(ctx, app.OperatorID)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			// No balance record means no debt.
		case err != nil:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load operator account balance")
		default:
			decision := s.policy.Evaluate(balance)
			if !decision.Eligible {
				return nil, dErrors.New(models.CodeBlockedDueToDebt,
					"operator owes %s: %s",
					balance.TotalOverdue, strings.Join(decision.BlockReasons, "; "))
			}
		}
	}

	seq, err := s.permits.NextSequence(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "reserve permit number")
	}

	now := requestcontext.Now(ctx)
	permit, err := models.NewFromApplication(app, models.FormatNumber(app.Type, seq), now)
	if err != nil {
		return nil, err
	}
	if err := s.permits.Create(ctx, permit); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create permit")
	}

	tx.Collect(ctx, tx.Event{
		Kind: "permit.issued",
		Key:  permit.ID.String(),
		Payload: map[string]any{
			"number":      permit.Number,
			"operator_id": permit.OperatorID.String(),
			"valid_until": permit.ValidUntil.UTC().Format("2006-01-02"),
		},
	})
	return permit, nil
}

// Get loads one permit.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Permit, error) {
	permit, err := s.permits.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "permit %s not found", id)
		}
		return nil, err
	}
	return permit, nil
}

// Expire marks a lapsed permit Expired. Called by the expiry job.
func (s *Service) Expire(ctx context.Context, id uuid.UUID) (*models.Permit, error) {
	return s.execute(ctx, id, func(p *models.Permit) error {
		return p.Expire(requestcontext.Now(ctx))
	})
}

// Suspend pauses an active permit with a reason.
func (s *Service) Suspend(ctx context.Context, id uuid.UUID, reason string) (*models.Permit, error) {
	return s.execute(ctx, id, func(p *models.Permit) error {
		return p.Suspend(reason, requestcontext.Now(ctx))
	})
}

// Reinstate lifts a suspension.
func (s *Service) Reinstate(ctx context.Context, id uuid.UUID) (*models.Permit, error) {
	return s.execute(ctx, id, func(p *models.Permit) error {
		return p.Reinstate(requestcontext.Now(ctx))
	})
}

// Revoke permanently withdraws a permit.
func (s *Service) Revoke(ctx context.Context, id uuid.UUID, revokedBy, reason string) (*models.Permit, error) {
	return s.execute(ctx, id, func(p *models.Permit) error {
		return p.Revoke(revokedBy, reason, requestcontext.Now(ctx))
	})
}

func (s *Service) execute(ctx context.Context, id uuid.UUID, fn func(p *models.Permit) error) (*models.Permit, error) {
	permit, err := s.permits.Execute(ctx, id, fn)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "permit %s not found", id)
		}
		return nil, err
	}
	return permit, nil
}
