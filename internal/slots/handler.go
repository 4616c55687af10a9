package slots

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carebook/carebook-platform/internal/directory"
	"github.com/carebook/carebook-platform/pkg/logging"
)

// Handler exposes the slot catalog over HTTP.
type Handler struct {
	catalog *Catalog
	clock   Clock
	logger  *logging.Logger
}

// NewHandler creates the slot handler.
func NewHandler(catalog *Catalog, clock Clock, logger *logging.Logger) *Handler {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{catalog: catalog, clock: clock, logger: logger}
}

// Available handles GET /doctors/{doctorID}/slots. An optional ?from=
// query (DateFormat) moves the window start; it defaults to today.
func (h *Handler) Available(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		http.Error(w, "invalid doctor id", http.StatusBadRequest)
		return
	}

	from := h.clock.Now()
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = time.Parse(DateFormat, raw)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
	}

	available, err := h.catalog.Available(r.Context(), doctorID, from)
	if err != nil {
		if errors.Is(err, directory.ErrDoctorNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Error("slot listing failed", "error", err, "doctor_id", doctorID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": available})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
