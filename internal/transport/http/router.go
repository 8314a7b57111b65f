// Package httptransport is the thin HTTP layer. Handlers decode input,
// delegate to the domain services, and translate domain errors to JSON
// responses; business rules never live here.
package httptransport

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appservice "github.com/JRosan/fop-system-sub004/internal/application/service"
	permitmodels "github.com/JRosan/fop-system-sub004/internal/permit/models"
	permitservice "github.com/JRosan/fop-system-sub004/internal/permit/service"
	revmodels "github.com/JRosan/fop-system-sub004/internal/revenue/models"
	revservice "github.com/JRosan/fop-system-sub004/internal/revenue/service"
	dErrors "github.com/JRosan/fop-system-sub004/pkg/domain-errors"
	"github.com/JRosan/fop-system-sub004/pkg/requestcontext"
)

// Handler delegates to the domain services.
type Handler struct {
	apps    *appservice.Service
	permits *permitservice.Service
	revenue *revservice.Service
	logger  *log.Logger
}

func NewHandler(apps *appservice.Service, permits *permitservice.Service, revenue *revservice.Service, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{apps: apps, permits: permits, revenue: revenue, logger: logger}
}

// Routes mounts every endpoint on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requestHeaders)

		r.Route("/applications", func(r chi.Router) {
			r.Post("/", h.createApplication)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getApplication)
				r.Post("/documents", h.attachDocument)
				r.Post("/submit", h.submitApplication)
				r.Post("/review", h.startReview)
				r.Post("/documents/{docID}/verify", h.verifyDocument)
				r.Post("/documents/{docID}/reject", h.rejectDocument)
				r.Post("/request-payment", h.requestPayment)
				r.Post("/complete-payment", h.completePayment)
				r.Post("/approve", h.approveApplication)
				r.Post("/reject", h.rejectApplication)
				r.Post("/cancel", h.cancelApplication)
				r.Post("/fee-override", h.overrideFee)
				r.Post("/waivers", h.requestWaiver)
				r.Post("/waivers/{waiverID}/approve", h.approveWaiver)
				r.Post("/waivers/{waiverID}/reject", h.rejectWaiver)
			})
		})

		r.Route("/permits/{id}", func(r chi.Router) {
			r.Get("/", h.getPermit)
			r.Post("/suspend", h.suspendPermit)
			r.Post("/reinstate", h.reinstatePermit)
			r.Post("/revoke", h.revokePermit)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", h.createInvoice)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getInvoice)
				r.Post("/line-items", h.addLineItem)
				r.Post("/finalize", h.finalizeInvoice)
				r.Post("/payments", h.recordPayment)
				r.Post("/cancel", h.cancelInvoice)
			})
		})
	})
}

// requestHeaders stamps tenant and actor identity from headers into the
// request context, and assigns every request an ID for log correlation. A
// caller-supplied X-Request-ID is kept; otherwise one is generated. The ID is
// echoed on the response.
func requestHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if raw := r.Header.Get("X-Tenant-ID"); raw != "" {
			if tenantID, err := uuid.Parse(raw); err == nil {
				ctx = requestcontext.WithTenantID(ctx, tenantID)
			}
		}
		if actor := r.Header.Get("X-Actor-ID"); actor != "" {
			ctx = requestcontext.WithActorID(ctx, actor)
		}
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.UUID{}, dErrors.New(dErrors.CodeBadRequest, "invalid %s", name)
	}
	return id, nil
}

func decode(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates domain error codes to HTTP statuses with a consistent
// JSON envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	status := toStatus(code)
	if status == http.StatusInternalServerError {
		h.logger.Printf("internal error (request %s): %v", requestcontext.RequestID(r.Context()), err)
	}
	writeJSON(w, status, map[string]string{
		"error":   string(code),
		"message": err.Error(),
	})
}

func toStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeInvariantViolation, permitmodels.CodeBlockedDueToDebt:
		return http.StatusUnprocessableEntity
	case permitmodels.CodeInvalidOperation,
		revmodels.CodeFinalizeError,
		revmodels.CodeInvoiceInvalidOperation,
		revmodels.CodePaymentInvalidOperation:
		return http.StatusConflict
	}
	// Application workflow codes share the InvalidOperation suffix.
	switch string(code) {
	case "Application.InvalidOperation", "Application.DocumentsNotVerified",
		"Payment.InvalidOperation", "Waiver.InvalidOperation":
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
