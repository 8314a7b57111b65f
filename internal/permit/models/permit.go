// Package models holds the Permit aggregate. Permits are created only from
// approved applications, via the issuance gate in internal/permit/service.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	appmodels "github.com/JRosan/fop-system-sub004/internal/application/models"
	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
)

// Stable error codes raised by the permit aggregate and the issuance gate.
const (
	CodeBlockedDueToDebt dErrors.Code = "Permit.BlockedDueToDebt"
	CodeInvalidOperation dErrors.Code = "Permit.InvalidOperation"
)

// Status is the permit lifecycle state. Expired and Revoked are terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusRevoked   Status = "revoked"
	StatusSuspended Status = "suspended"
)

// Permit is an issued foreign-operator permit. It references its originating
// application and operator by identity only.
type Permit struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	Number        string
	Type          appmodels.Type
	Status        Status
	ApplicationID uuid.UUID
	OperatorID    uuid.UUID
	OperatorEmail string
	AircraftID    uuid.UUID
	ValidFrom     time.Time
	ValidUntil    time.Time
	FeesPaid      money.Money
	Conditions    string

	SuspendedAt      *time.Time
	SuspensionReason string
	RevokedAt        *time.Time
	RevocationReason string
	RevokedBy        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// typePrefixes give each application type its permit-number prefix.
var typePrefixes = map[appmodels.Type]string{
	appmodels.TypeOneTime:   "OT",
	appmodels.TypeBlanket:   "BL",
	appmodels.TypeEmergency: "EM",
}

// FormatNumber builds a type-prefixed permit number from a store sequence.
func FormatNumber(t appmodels.Type, sequence int64) string {
	prefix, ok := typePrefixes[t]
	if !ok {
		prefix = "XX"
	}
	return fmt.Sprintf("FOP-%s-%06d", prefix, sequence)
}

// NewFromApplication constructs an Active permit from an approved (or
// approving) application. The validity window is the requested window; fees
// paid is the application's calculated fee.
func NewFromApplication(app *appmodels.Application, number string, now time.Time) (*Permit, error) {
	if app == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "application is required")
	}
	if number == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "permit number is required")
	}
	return &Permit{
		ID:            uuid.New(),
		TenantID:      app.TenantID,
		Number:        number,
		Type:          app.Type,
		Status:        StatusActive,
		ApplicationID: app.ID,
		OperatorID:    app.OperatorID,
		OperatorEmail: app.ContactEmail,
		AircraftID:    app.AircraftID,
		ValidFrom:     app.RequestedFrom,
		ValidUntil:    app.RequestedUntil,
		FeesPaid:      app.CalculatedFee,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Expire moves an Active or Suspended permit to Expired (terminal).
func (p *Permit) Expire(now time.Time) error {
	if p.Status != StatusActive && p.Status != StatusSuspended {
		return dErrors.New(CodeInvalidOperation, "cannot expire a %s permit", p.Status)
	}
	p.Status = StatusExpired
	p.UpdatedAt = now
	return nil
}

// Suspend pauses an Active permit.
func (p *Permit) Suspend(reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "suspension requires a reason")
	}
	if p.Status != StatusActive {
		return dErrors.New(CodeInvalidOperation, "cannot suspend a %s permit", p.Status)
	}
	p.Status = StatusSuspended
	p.SuspendedAt = &now
	p.SuspensionReason = reason
	p.UpdatedAt = now
	return nil
}

// Reinstate lifts a suspension.
func (p *Permit) Reinstate(now time.Time) error {
	if p.Status != StatusSuspended {
		return dErrors.New(CodeInvalidOperation, "cannot reinstate a %s permit", p.Status)
	}
	p.Status = StatusActive
	p.SuspendedAt = nil
	p.SuspensionReason = ""
	p.UpdatedAt = now
	return nil
}

// Revoke permanently withdraws the permit (terminal).
func (p *Permit) Revoke(revokedBy, reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "revocation requires a reason")
	}
	if p.Status != StatusActive && p.Status != StatusSuspended {
		return dErrors.New(CodeInvalidOperation, "cannot revoke a %s permit", p.Status)
	}
	p.Status = StatusRevoked
	p.RevokedAt = &now
	p.RevocationReason = reason
	p.RevokedBy = revokedBy
	p.UpdatedAt = now
	return nil
}

// DaysUntilExpiry returns whole days between now and the validity end,
// truncated toward zero.
func (p *Permit) DaysUntilExpiry(now time.Time) int {
	return int(p.ValidUntil.Sub(now).Hours() / 24)
}
