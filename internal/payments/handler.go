package payments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carebook/carebook-platform/internal/appointments"
	"github.com/carebook/carebook-platform/internal/http/middleware"
	"github.com/carebook/carebook-platform/pkg/logging"
)

// Handler exposes the payment operations over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the payment handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// CreateOrder handles POST /appointments/{appointmentID}/payment-order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.PatientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing patient context", http.StatusUnauthorized)
		return
	}
	apptID, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), apptID, patientID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// VerifyRequestBody is the wire shape for POST /payments/verify.
type VerifyRequestBody struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// Verify handles POST /payments/verify, the gateway settlement callback.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var body VerifyRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.OrderID == "" || body.PaymentID == "" || body.Signature == "" {
		http.Error(w, "order_id, payment_id and signature are required", http.StatusBadRequest)
		return
	}

	result, err := h.service.Verify(r.Context(), VerifyRequest{
		OrderID:   body.OrderID,
		PaymentID: body.PaymentID,
		Signature: body.Signature,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"verified":                result.Verified,
		"already_settled":         result.AlreadySettled,
		"reconciliation_required": result.ReconciliationRequired,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSignatureMismatch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment verification failed"})
	case errors.Is(err, ErrNotPayable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrTooManyAttempts):
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
	case errors.Is(err, appointments.ErrNotOwner):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, appointments.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("payment request failed", "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
