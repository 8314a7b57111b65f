package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
)

// Stable error codes raised by the application aggregate.
const (
	CodeInvalidOperation        dErrors.Code = "Application.InvalidOperation"
	CodeDocumentsNotVerified    dErrors.Code = "Application.DocumentsNotVerified"
	CodePaymentInvalidOperation dErrors.Code = "Payment.InvalidOperation"
	CodeWaiverInvalidOperation  dErrors.Code = "Waiver.InvalidOperation"
)

const minWaiverRejectionReason = 10

// FlightDetails describes the operation the permit is requested for.
type FlightDetails struct {
	DepartureAirport string
	ArrivalAirport   string
	Purpose          string
	SeatCount        int
	PassengerCount   int
	MTOW             money.Weight
}

// FeeOverride records a manual replacement of the calculated fee.
type FeeOverride struct {
	PreviousFee   money.Money
	NewFee        money.Money
	OverriddenBy  string
	Justification string
	OverriddenAt  time.Time
}

// Application is the aggregate root for a foreign-operator permit
// application. It owns its documents, payment, and waivers; fields mutate
// only through the named methods below, which enforce the transition table.
//
// Invariants:
//   - Status advances only along the Status transition table
//   - CalculatedFee changes only via OverrideFee or ApproveWaiver
//   - At most one pending waiver at a time
type Application struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Type       Type
	Status     Status
	OperatorID uuid.UUID
	AircraftID uuid.UUID

	// ContactEmail is the operator's notification address, recorded at
	// submission and carried onto the issued permit.
	ContactEmail string

	Flight         FlightDetails
	RequestedFrom  time.Time
	RequestedUntil time.Time

	// OriginalFee is the waiver basis: the engine-calculated fee, replaced
	// wholesale by a fee override. CalculatedFee is what the operator pays.
	OriginalFee   money.Money
	CalculatedFee money.Money
	Override      *FeeOverride

	Documents []Document
	Payment   *Payment
	Waivers   []Waiver

	ReviewerID      string
	ReviewNotes     string
	ApprovedBy      string
	RejectedBy      string
	RejectionReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New validates required inputs and constructs a Draft application with its
// fee frozen to the engine's calculation.
func New(tenantID, operatorID, aircraftID uuid.UUID, appType Type, flight FlightDetails,
	from, until time.Time, fee money.Money, now time.Time) (*Application, error) {

	if tenantID == (uuid.UUID{}) {
		return nil, dErrors.New(dErrors.CodeValidation, "tenant ID is required")
	}
	if operatorID == (uuid.UUID{}) {
		return nil, dErrors.New(dErrors.CodeValidation, "operator ID is required")
	}
	if aircraftID == (uuid.UUID{}) {
		return nil, dErrors.New(dErrors.CodeValidation, "aircraft ID is required")
	}
	if !appType.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown application type %q", appType)
	}
	if !until.After(from) {
		return nil, dErrors.New(dErrors.CodeValidation, "validity window end must be after start")
	}
	if fee.IsNegative() {
		return nil, dErrors.New(dErrors.CodeValidation, "calculated fee cannot be negative")
	}

	return &Application{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Type:           appType,
		Status:         StatusDraft,
		OperatorID:     operatorID,
		AircraftID:     aircraftID,
		Flight:         flight,
		RequestedFrom:  from,
		RequestedUntil: until,
		OriginalFee:    fee,
		CalculatedFee:  fee,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// AttachDocument adds a supporting document while the application is editable.
func (a *Application) AttachDocument(docType DocumentType, url string, expiry *time.Time, now time.Time) (*Document, error) {
	if a.Status != StatusDraft && a.Status != StatusPendingDocuments {
		return nil, dErrors.New(CodeInvalidOperation, "documents can only be attached in draft or pending-documents state")
	}
	if url == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "document URL is required")
	}
	doc := Document{
		ID:         uuid.New(),
		Type:       docType,
		URL:        url,
		ExpiryDate: expiry,
		Status:     DocumentPending,
		UploadedAt: now,
	}
	a.Documents = append(a.Documents, doc)
	a.UpdatedAt = now
	return &a.Documents[len(a.Documents)-1], nil
}

// Submit moves Draft → Submitted. All required document types must be
// attached.
func (a *Application) Submit(contactEmail string, now time.Time) error {
	if a.Status != StatusDraft {
		return dErrors.New(CodeInvalidOperation, "only draft applications can be submitted")
	}
	for _, required := range RequiredDocumentTypes {
		if a.findDocumentByType(required) == nil {
			return dErrors.New(CodeInvalidOperation, "missing required document: %s", required)
		}
	}
	a.Status = StatusSubmitted
	a.ContactEmail = contactEmail
	a.UpdatedAt = now
	return nil
}

// StartReview moves Submitted → UnderReview and records the reviewer.
func (a *Application) StartReview(reviewerID string, now time.Time) error {
	if reviewerID == "" {
		return dErrors.New(dErrors.CodeValidation, "reviewer ID is required")
	}
	if !a.Status.CanTransitionTo(StatusUnderReview) {
		return dErrors.New(CodeInvalidOperation, "cannot start review from %s", a.Status)
	}
	a.Status = StatusUnderReview
	a.ReviewerID = reviewerID
	a.UpdatedAt = now
	return nil
}

// VerifyDocument marks a single document verified.
func (a *Application) VerifyDocument(docID uuid.UUID, verifier string, now time.Time) error {
	doc := a.findDocument(docID)
	if doc == nil {
		return dErrors.New(dErrors.CodeNotFound, "document %s not found", docID)
	}
	doc.Status = DocumentVerified
	doc.VerifiedBy = verifier
	doc.VerifiedAt = &now
	doc.RejectionReason = ""
	a.UpdatedAt = now
	return nil
}

// RejectDocument marks a single document rejected; the application drops to
// PendingDocuments so the operator can re-upload.
func (a *Application) RejectDocument(docID uuid.UUID, verifier, reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "document rejection requires a reason")
	}
	doc := a.findDocument(docID)
	if doc == nil {
		return dErrors.New(dErrors.CodeNotFound, "document %s not found", docID)
	}
	doc.Status = DocumentRejected
	doc.VerifiedBy = verifier
	doc.VerifiedAt = &now
	doc.RejectionReason = reason
	if a.Status.CanTransitionTo(StatusPendingDocuments) {
		a.Status = StatusPendingDocuments
	}
	a.UpdatedAt = now
	return nil
}

// RequiredDocumentsVerified reports whether every required document type has
// at least one verified document.
func (a *Application) RequiredDocumentsVerified() bool {
	for _, required := range RequiredDocumentTypes {
		verified := false
		for i := range a.Documents {
			if a.Documents[i].Type == required && a.Documents[i].Status == DocumentVerified {
				verified = true
				break
			}
		}
		if !verified {
			return false
		}
	}
	return true
}

// RequestPayment creates the pending fee payment and moves the application to
// PendingPayment. Every required document must be individually verified.
func (a *Application) RequestPayment(method PaymentMethod, now time.Time) error {
	if !a.Status.CanTransitionTo(StatusPendingPayment) {
		return dErrors.New(CodeInvalidOperation, "cannot request payment from %s", a.Status)
	}
	if !a.RequiredDocumentsVerified() {
		return dErrors.New(CodeDocumentsNotVerified, "all required documents must be verified before payment")
	}
	if a.Payment != nil && a.Payment.Status == PaymentCompleted {
		return dErrors.New(CodePaymentInvalidOperation, "payment already completed")
	}
	a.Payment = &Payment{
		Amount:      a.CalculatedFee,
		Method:      method,
		Status:      PaymentPending,
		RequestedAt: now,
	}
	a.Status = StatusPendingPayment
	a.UpdatedAt = now
	return nil
}

// CompletePayment moves a Pending/Processing payment to Completed.
func (a *Application) CompletePayment(transactionRef, receiptNumber string, now time.Time) error {
	if a.Payment == nil {
		return dErrors.New(CodePaymentInvalidOperation, "no payment has been requested")
	}
	if a.Payment.Status != PaymentPending && a.Payment.Status != PaymentProcessing {
		return dErrors.New(CodePaymentInvalidOperation, "payment is %s, expected pending or processing", a.Payment.Status)
	}
	a.Payment.Status = PaymentCompleted
	a.Payment.TransactionRef = transactionRef
	a.Payment.ReceiptNumber = receiptNumber
	a.Payment.CompletedAt = &now
	a.UpdatedAt = now
	return nil
}

// CanApprove checks the approval prerequisites without mutating. The debt
// eligibility gate runs at the service layer between CanApprove and
// ApplyApproval.
func (a *Application) CanApprove() error {
	if !a.Status.CanTransitionTo(StatusApproved) {
		return dErrors.New(CodeInvalidOperation, "cannot approve from %s", a.Status)
	}
	if a.Payment == nil || a.Payment.Status != PaymentCompleted {
		return dErrors.New(CodePaymentInvalidOperation, "approval requires a completed payment")
	}
	return nil
}

// ApplyApproval transitions to Approved. Call CanApprove (and the issuance
// gate) first.
func (a *Application) ApplyApproval(approver, notes string, now time.Time) {
	a.Status = StatusApproved
	a.ApprovedBy = approver
	a.ReviewNotes = notes
	a.UpdatedAt = now
}

// Reject always succeeds once a completed payment exists.
func (a *Application) Reject(rejecter, reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "rejection requires a reason")
	}
	if !a.Status.CanTransitionTo(StatusRejected) {
		return dErrors.New(CodeInvalidOperation, "cannot reject from %s", a.Status)
	}
	a.Status = StatusRejected
	a.RejectedBy = rejecter
	a.RejectionReason = reason
	a.UpdatedAt = now
	return nil
}

// Cancel is externally triggered and valid from any non-terminal state.
func (a *Application) Cancel(now time.Time) error {
	if !a.Status.CanTransitionTo(StatusCancelled) {
		return dErrors.New(CodeInvalidOperation, "application is already %s", a.Status)
	}
	a.Status = StatusCancelled
	a.UpdatedAt = now
	return nil
}

// Expire is externally triggered and valid from any non-terminal state.
func (a *Application) Expire(now time.Time) error {
	if !a.Status.CanTransitionTo(StatusExpired) {
		return dErrors.New(CodeInvalidOperation, "application is already %s", a.Status)
	}
	a.Status = StatusExpired
	a.UpdatedAt = now
	return nil
}

// OverrideFee replaces the calculated fee with a manual amount. The override
// becomes the new waiver basis. Status is unchanged.
func (a *Application) OverrideFee(newFee money.Money, overriddenBy, justification string, now time.Time) error {
	if strings.TrimSpace(justification) == "" {
		return dErrors.New(dErrors.CodeValidation, "fee override requires a justification")
	}
	if newFee.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "fee cannot be negative")
	}
	if a.Status.Terminal() {
		return dErrors.New(CodeInvalidOperation, "cannot override fee on a %s application", a.Status)
	}
	a.Override = &FeeOverride{
		PreviousFee:   a.CalculatedFee,
		NewFee:        newFee,
		OverriddenBy:  overriddenBy,
		Justification: justification,
		OverriddenAt:  now,
	}
	a.OriginalFee = newFee
	a.CalculatedFee = newFee
	a.UpdatedAt = now
	return nil
}

// RequestWaiver opens a waiver request. At most one pending waiver may exist.
func (a *Application) RequestWaiver(waiverType WaiverType, reason, requester string, now time.Time) (*Waiver, error) {
	if !waiverType.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown waiver type %q", waiverType)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "waiver request requires a reason")
	}
	if a.PendingWaiver() != nil {
		return nil, dErrors.New(CodeWaiverInvalidOperation, "a pending waiver already exists")
	}
	if a.Status.Terminal() {
		return nil, dErrors.New(CodeWaiverInvalidOperation, "cannot request a waiver on a %s application", a.Status)
	}
	waiver := Waiver{
		ID:          uuid.New(),
		Type:        waiverType,
		Status:      WaiverPending,
		Reason:      reason,
		RequestedBy: requester,
		RequestedAt: now,
	}
	a.Waivers = append(a.Waivers, waiver)
	a.UpdatedAt = now
	return &a.Waivers[len(a.Waivers)-1], nil
}

// ApproveWaiver grants a pending waiver at the given percentage and
// recalculates the fee from the waiver basis:
//
//	waivedAmount  = originalFee × percentage/100
//	calculatedFee = originalFee − waivedAmount
func (a *Application) ApproveWaiver(waiverID uuid.UUID, approver string, percentage decimal.Decimal, now time.Time) error {
	if percentage.IsNegative() || percentage.GreaterThan(decimal.NewFromInt(100)) {
		return dErrors.New(dErrors.CodeValidation, "waiver percentage must be between 0 and 100")
	}
	waiver := a.findWaiver(waiverID)
	if waiver == nil {
		return dErrors.New(dErrors.CodeNotFound, "waiver %s not found", waiverID)
	}
	if waiver.Status != WaiverPending {
		return dErrors.New(CodeWaiverInvalidOperation, "waiver is already %s", waiver.Status)
	}

	waived := a.OriginalFee.Mul(percentage.Div(decimal.NewFromInt(100))).Round()
	remaining, err := a.OriginalFee.Sub(waived)
	if err != nil {
		return err
	}

	waiver.Status = WaiverApproved
	waiver.WaivedAmount = waived
	waiver.Percentage = percentage
	waiver.ApprovedBy = approver
	waiver.ApprovedAt = &now
	a.CalculatedFee = remaining
	a.UpdatedAt = now
	return nil
}

// RejectWaiver declines a pending waiver; the fee is unchanged.
func (a *Application) RejectWaiver(waiverID uuid.UUID, rejecter, reason string, now time.Time) error {
	if len(strings.TrimSpace(reason)) < minWaiverRejectionReason {
		return dErrors.New(dErrors.CodeValidation,
			"waiver rejection reason must be at least %d characters", minWaiverRejectionReason)
	}
	waiver := a.findWaiver(waiverID)
	if waiver == nil {
		return dErrors.New(dErrors.CodeNotFound, "waiver %s not found", waiverID)
	}
	if waiver.Status != WaiverPending {
		return dErrors.New(CodeWaiverInvalidOperation, "waiver is already %s", waiver.Status)
	}
	waiver.Status = WaiverRejected
	waiver.RejectedBy = rejecter
	waiver.RejectionReason = reason
	waiver.RejectedAt = &now
	a.UpdatedAt = now
	return nil
}

// PendingWaiver returns the open waiver, if any.
func (a *Application) PendingWaiver() *Waiver {
	for i := range a.Waivers {
		if a.Waivers[i].Status == WaiverPending {
			return &a.Waivers[i]
		}
	}
	return nil
}

func (a *Application) findDocument(docID uuid.UUID) *Document {
	for i := range a.Documents {
		if a.Documents[i].ID == docID {
			return &a.Documents[i]
		}
	}
	return nil
}

func (a *Application) findDocumentByType(docType DocumentType) *Document {
	for i := range a.Documents {
		if a.Documents[i].Type == docType {
			return &a.Documents[i]
		}
	}
	return nil
}

func (a *Application) findWaiver(waiverID uuid.UUID) *Waiver {
	for i := range a.Waivers {
		if a.Waivers[i].ID == waiverID {
			return &a.Waivers[i]
		}
	}
	return nil
}
