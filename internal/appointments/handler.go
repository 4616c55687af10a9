package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carebook/carebook-platform/internal/directory"
	"github.com/carebook/carebook-platform/internal/http/middleware"
	"github.com/carebook/carebook-platform/internal/slots"
	"github.com/carebook/carebook-platform/pkg/logging"
)

// Handler exposes the booking operations over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the booking handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// ReserveRequestBody is the wire shape for POST /appointments.
type ReserveRequestBody struct {
	DoctorID    string `json:"doctor_id"`
	Date        string `json:"date"` // 2006-01-02
	Time        string `json:"time"` // e.g. "10:00 AM"
	PatientName string `json:"patient_name"`
	Symptoms    string `json:"symptoms"`
	Reasons     string `json:"reasons"`
}

// Reserve handles POST /appointments.
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.PatientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing patient context", http.StatusUnauthorized)
		return
	}

	var body ReserveRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	doctorID, err := uuid.Parse(body.DoctorID)
	if err != nil {
		http.Error(w, "invalid doctor id", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(slots.DateFormat, body.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Reserve(r.Context(), ReserveRequest{
		DoctorID:    doctorID,
		PatientID:   patientID,
		Date:        date,
		Time:        body.Time,
		PatientName: body.PatientName,
		Symptoms:    body.Symptoms,
		Reasons:     body.Reasons,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// Cancel handles PUT /appointments/{appointmentID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
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

	appt, err := h.service.Cancel(r.Context(), apptID, patientID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     appt.ID,
		"status": appt.Status,
	})
}

// ListResponse is the response for GET /appointments.
type ListResponse struct {
	Upcoming []*Appointment `json:"upcoming"`
	Past     []*Appointment `json:"past"`
}

// List handles GET /appointments for the authenticated patient.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.PatientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing patient context", http.StatusUnauthorized)
		return
	}
	upcoming, past, err := h.service.ListForPatient(r.Context(), patientID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Upcoming: upcoming, Past: past})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSlotTaken):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "slot already booked, please choose another slot",
		})
	case errors.Is(err, ErrSlotUnavailable),
		errors.Is(err, ErrDoctorSuspended),
		errors.Is(err, ErrPatientSuspended):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNotOwner):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNotFound),
		errors.Is(err, directory.ErrDoctorNotFound),
		errors.Is(err, directory.ErrPatientNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("booking request failed", "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
