package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/carebook/carebook-platform/internal/appointments"
	"github.com/carebook/carebook-platform/internal/directory"
	"github.com/carebook/carebook-platform/pkg/logging"
)

// Cascader cancels every upcoming appointment for a suspended party.
type Cascader interface {
	CancelForSuspension(ctx context.Context, party directory.PartyType, partyID uuid.UUID) (int, error)
}

// AdminSuspensions handles the admin suspend/reinstate surface.
type AdminSuspensions struct {
	profiles directory.Repository
	bookings Cascader
	logger   *logging.Logger
}

// NewAdminSuspensions creates the suspension handler.
func NewAdminSuspensions(profiles directory.Repository, bookings Cascader, logger *logging.Logger) *AdminSuspensions {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminSuspensions{profiles: profiles, bookings: bookings, logger: logger}
}

// SuspendRequestBody is the wire shape for POST /admin/suspensions.
type SuspendRequestBody struct {
	Party   string `json:"party"` // doctor or patient
	PartyID string `json:"party_id"`
}

// Suspend handles POST /admin/suspensions: mark the party inactive, then
// cascade-cancel their upcoming appointments. The suspension itself always
// sticks; cascade failures surface as 502 with the partial count.
func (h *AdminSuspensions) Suspend(w http.ResponseWriter, r *http.Request) {
	var body SuspendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	party := directory.PartyType(body.Party)
	if !party.Valid() {
		http.Error(w, "party must be doctor or patient", http.StatusBadRequest)
		return
	}
	partyID, err := uuid.Parse(body.PartyID)
	if err != nil {
		http.Error(w, "invalid party id", http.StatusBadRequest)
		return
	}

	if err := h.setActive(r.Context(), party, partyID, false); err != nil {
		h.writeProfileError(w, err)
		return
	}

	cancelled, err := h.bookings.CancelForSuspension(r.Context(), party, partyID)
	if err != nil {
		h.logger.Error("suspension cascade incomplete",
			"party", party,
			"party_id", partyID,
			"cancelled", cancelled,
			"error", err,
		)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":           "suspension applied but some cancellations failed",
			"cancelled_count": cancelled,
		})
		return
	}

	h.logger.Info("party suspended", "party", party, "party_id", partyID, "cancelled", cancelled)
	writeJSON(w, http.StatusOK, map[string]any{
		"party":           party,
		"party_id":        partyID,
		"cancelled_count": cancelled,
	})
}

// Reinstate handles DELETE /admin/suspensions: clears the suspension flag.
// Appointments cancelled by the cascade stay cancelled.
func (h *AdminSuspensions) Reinstate(w http.ResponseWriter, r *http.Request) {
	var body SuspendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	party := directory.PartyType(body.Party)
	if !party.Valid() {
		http.Error(w, "party must be doctor or patient", http.StatusBadRequest)
		return
	}
	partyID, err := uuid.Parse(body.PartyID)
	if err != nil {
		http.Error(w, "invalid party id", http.StatusBadRequest)
		return
	}

	if err := h.setActive(r.Context(), party, partyID, true); err != nil {
		h.writeProfileError(w, err)
		return
	}

	h.logger.Info("party reinstated", "party", party, "party_id", partyID)
	writeJSON(w, http.StatusOK, map[string]any{
		"party":    party,
		"party_id": partyID,
		"active":   true,
	})
}

func (h *AdminSuspensions) setActive(ctx context.Context, party directory.PartyType, partyID uuid.UUID, active bool) error {
	if party == directory.PartyDoctor {
		return h.profiles.SetDoctorActive(ctx, partyID, active)
	}
	return h.profiles.SetPatientActive(ctx, partyID, active)
}

func (h *AdminSuspensions) writeProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, directory.ErrDoctorNotFound), errors.Is(err, directory.ErrPatientNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("suspension update failed", "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

var _ Cascader = (*appointments.Service)(nil)
