package models

// Type classifies a permit application.
type Type string

const (
	TypeOneTime   Type = "one_time"
	TypeBlanket   Type = "blanket"
	TypeEmergency Type = "emergency"
)

func (t Type) Valid() bool {
	switch t {
	case TypeOneTime, TypeBlanket, TypeEmergency:
		return true
	}
	return false
}

// Status is the application state machine position.
//
// Draft → Submitted → UnderReview → {PendingDocuments | PendingPayment}
// → Approved | Rejected, plus externally triggered Expired and Cancelled from
// any non-terminal state.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusSubmitted        Status = "submitted"
	StatusUnderReview      Status = "under_review"
	StatusPendingDocuments Status = "pending_documents"
	StatusPendingPayment   Status = "pending_payment"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusExpired          Status = "expired"
	StatusCancelled        Status = "cancelled"
)

// transitions is the full table; status only advances along it.
var transitions = map[Status][]Status{
	StatusDraft:            {StatusSubmitted},
	StatusSubmitted:        {StatusUnderReview},
	StatusUnderReview:      {StatusPendingDocuments, StatusPendingPayment, StatusRejected},
	StatusPendingDocuments: {StatusUnderReview, StatusPendingPayment, StatusRejected},
	StatusPendingPayment:   {StatusApproved, StatusRejected},
}

// CanTransitionTo reports whether the table allows moving to next. Expired and
// Cancelled are reachable from any non-terminal state.
func (s Status) CanTransitionTo(next Status) bool {
	if next == StatusExpired || next == StatusCancelled {
		return !s.Terminal()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusExpired, StatusCancelled:
		return true
	}
	return false
}
