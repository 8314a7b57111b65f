package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JRosan/fop-system-sub004/pkg/money"
)

// WaiverType is the ground on which a fee waiver is requested.
type WaiverType string

const (
	WaiverEmergency    WaiverType = "emergency"
	WaiverHumanitarian WaiverType = "humanitarian"
	WaiverGovernment   WaiverType = "government"
	WaiverDiplomatic   WaiverType = "diplomatic"
	WaiverMilitary     WaiverType = "military"
	WaiverOther        WaiverType = "other"
)

func (t WaiverType) Valid() bool {
	switch t {
	case WaiverEmergency, WaiverHumanitarian, WaiverGovernment,
		WaiverDiplomatic, WaiverMilitary, WaiverOther:
		return true
	}
	return false
}

// WaiverStatus is the waiver sub-workflow state.
type WaiverStatus string

const (
	WaiverPending  WaiverStatus = "pending"
	WaiverApproved WaiverStatus = "approved"
	WaiverRejected WaiverStatus = "rejected"
)

// Waiver is a fee-waiver request owned by its application. At most one
// pending waiver exists per application at a time.
type Waiver struct {
	ID          uuid.UUID
	Type        WaiverType
	Status      WaiverStatus
	Reason      string
	RequestedBy string
	RequestedAt time.Time

	// Set on approval.
	WaivedAmount money.Money
	Percentage   decimal.Decimal
	ApprovedBy   string
	ApprovedAt   *time.Time

	// Set on rejection.
	RejectedBy      string
	RejectionReason string
	RejectedAt      *time.Time
}
