package httptransport

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JRosan/fop-system-sub004/internal/application/models"
	appservice "github.com/JRosan/fop-system-sub004/internal/application/service"
	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
)

type createApplicationRequest struct {
	OperatorID     uuid.UUID `json:"operator_id"`
	AircraftID     uuid.UUID `json:"aircraft_id"`
	Type           string    `json:"type"`
	RequestedFrom  time.Time `json:"requested_from"`
	RequestedUntil time.Time `json:"requested_until"`

	DepartureAirport string `json:"departure_airport"`
	ArrivalAirport   string `json:"arrival_airport"`
	Purpose          string `json:"purpose"`
	SeatCount        int    `json:"seat_count"`
	PassengerCount   int    `json:"passenger_count"`
	MTOW             string `json:"mtow"`
	MTOWUnit         string `json:"mtow_unit"`
}

func (h *Handler) createApplication(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	mtow, err := money.NewWeight(req.MTOW, money.WeightUnit(req.MTOWUnit))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	app, err := h.apps.CreateDraft(r.Context(), appservice.CreateDraftInput{
		OperatorID: req.OperatorID,
		AircraftID: req.AircraftID,
		Type:       models.Type(req.Type),
		Flight: models.FlightDetails{
			DepartureAirport: req.DepartureAirport,
			ArrivalAirport:   req.ArrivalAirport,
			Purpose:          req.Purpose,
			SeatCount:        req.SeatCount,
			PassengerCount:   req.PassengerCount,
			MTOW:             mtow,
		},
		RequestedFrom:  req.RequestedFrom,
		RequestedUntil: req.RequestedUntil,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.apps.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) attachDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Type   string     `json:"type"`
		URL    string     `json:"url"`
		Expiry *time.Time `json:"expiry,omitempty"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.apps.AttachDocument(r.Context(), id, models.DocumentType(req.Type), req.URL, req.Expiry)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) submitApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		OperatorEmail string `json:"operator_email"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.apps.Submit(r.Context(), id, req.OperatorEmail)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) startReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		ReviewerID string `json:"reviewer_id"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.apps.StartReview(r.Context(), id, req.ReviewerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) verifyDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	docID, err := pathID(r, "docID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Verifier string `json:"verifier"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.apps.VerifyDocument(r.Context(), id, docID, req.Verifier)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) rejectDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	docID, err := pathID(r, "docID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Verifier string `json:"verifier"`
		Reason   string `json:"reason"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.apps.RejectDocument(r.Context(), id, docID, req.Verifier, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) requestPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Method string `json:"method"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.apps.RequestPayment(r.Context(), id, models.PaymentMethod(req.Method))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) completePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		TransactionRef string `json:"transaction_ref"`
		ReceiptNumber  string `json:"receipt_number"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.apps.CompletePayment(r.Context(), id, req.TransactionRef, req.ReceiptNumber)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) approveApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Approver            string `json:"approver"`
		Notes               string `json:"notes"`
		BypassDebtGate      bool   `json:"bypass_debt_gate"`
		BypassJustification string `json:"bypass_justification"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, permit, err := h.apps.Approve(r.Context(), id, req.Approver, req.Notes, appservice.ApproveOptions{
		Bypass:              req.BypassDebtGate,
		BypassJustification: req.BypassJustification,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"application": app,
		"permit":      permit,
	})
}

func (h *Handler) rejectApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Rejecter string `json:"rejecter"`
		Reason   string `json:"reason"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.apps.Reject(r.Context(), id, req.Rejecter, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) cancelApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.apps.Cancel(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) overrideFee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Amount        string `json:"amount"`
		Currency      string `json:"currency"`
		OverriddenBy  string `json:"overridden_by"`
		Justification string `json:"justification"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.apps.OverrideFee(r.Context(), id, req.Amount, money.Currency(req.Currency), req.OverriddenBy, req.Justification)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) requestWaiver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Type      string `json:"type"`
		Reason    string `json:"reason"`
		Requester string `json:"requester"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.apps.RequestWaiver(r.Context(), id, models.WaiverType(req.Type), req.Reason, req.Requester)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) approveWaiver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	waiverID, err := pathID(r, "waiverID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Approver   string `json:"approver"`
		Percentage string `json:"percentage"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	pct, err := decimal.NewFromString(req.Percentage)
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid percentage %q", req.Percentage))
		return
	}
	app, err := h.apps.ApproveWaiver(r.Context(), id, waiverID, req.Approver, pct)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) rejectWaiver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	waiverID, err := pathID(r, "waiverID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Rejecter string `json:"rejecter"`
		Reason   string `json:"reason"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.apps.RejectWaiver(r.Context(), id, waiverID, req.Rejecter, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}
