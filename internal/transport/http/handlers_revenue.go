package httptransport

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JRosan/fop-system-sub004/internal/revenue/models"
	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/money"
)

type createInvoiceRequest struct {
	OperatorID     uuid.UUID `json:"operator_id"`
	Airport        string    `json:"airport"`
	OperationType  string    `json:"operation_type"`
	FlightDate     time.Time `json:"flight_date"`
	AircraftID     uuid.UUID `json:"aircraft_id"`
	MTOW           string    `json:"mtow"`
	MTOWUnit       string    `json:"mtow_unit"`
	SeatCount      int       `json:"seat_count"`
	PassengerCount int       `json:"passenger_count"`
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	mtow, err := money.NewWeight(req.MTOW, money.WeightUnit(req.MTOWUnit))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	inv, err := h.revenue.CreateInvoice(r.Context(), req.OperatorID, models.FlightInfo{
		Airport:        req.Airport,
		OperationType:  models.OperationType(req.OperationType),
		FlightDate:     req.FlightDate,
		AircraftID:     req.AircraftID,
		MTOW:           mtow,
		SeatCount:      req.SeatCount,
		PassengerCount: req.PassengerCount,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	inv, err := h.revenue.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) addLineItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Category    string `json:"category"`
		Description string `json:"description"`
		Quantity    string `json:"quantity"`
		Unit        string `json:"unit"`
		UnitRate    string `json:"unit_rate"`
		Currency    string `json:"currency"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid quantity %q", req.Quantity))
		return
	}
	rate, err := money.New(req.UnitRate, money.Currency(req.Currency))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	inv, err := h.revenue.AddLineItem(r.Context(), id, models.FeeCategory(req.Category), req.Description, quantity, req.Unit, rate)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) finalizeInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		FinalizedBy string `json:"finalized_by"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	inv, err := h.revenue.Finalize(r.Context(), id, req.FinalizedBy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Amount         string `json:"amount"`
		Currency       string `json:"currency"`
		Method         string `json:"method"`
		TransactionRef string `json:"transaction_ref"`
		Notes          string `json:"notes"`
		RecordedBy     string `json:"recorded_by"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	amount, err := money.New(req.Amount, money.Currency(req.Currency))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	inv, err := h.revenue.RecordPayment(r.Context(), id, amount, req.Method, req.TransactionRef, req.Notes, req.RecordedBy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) cancelInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	inv, err := h.revenue.Cancel(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
