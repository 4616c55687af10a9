package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/carebook/carebook-platform/internal/appointments"
	"github.com/carebook/carebook-platform/internal/http/handlers"
	httpmiddleware "github.com/carebook/carebook-platform/internal/http/middleware"
	"github.com/carebook/carebook-platform/internal/payments"
	"github.com/carebook/carebook-platform/internal/slots"
	"github.com/carebook/carebook-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	SlotsHandler        *slots.Handler
	AppointmentsHandler *appointments.Handler
	PaymentsHandler     *payments.Handler
	AdminSuspensions    *handlers.AdminSuspensions
	MetricsHandler      http.Handler

	AdminJWTSecret     string
	PatientJWTSecret   string
	CORSAllowedOrigins []string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health, metrics, slot browsing, and the gateway
	// settlement callback. The callback authenticates itself by signature.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.SlotsHandler != nil {
			public.Get("/doctors/{doctorID}/slots", cfg.SlotsHandler.Available)
		}
		if cfg.PaymentsHandler != nil {
			public.Post("/payments/verify", cfg.PaymentsHandler.Verify)
		}
	})

	// Patient endpoints
	if cfg.AppointmentsHandler != nil {
		r.Group(func(patient chi.Router) {
			patient.Use(httpmiddleware.PatientJWT(cfg.PatientJWTSecret))
			patient.Get("/appointments", cfg.AppointmentsHandler.List)
			patient.Post("/appointments", cfg.AppointmentsHandler.Reserve)
			patient.Put("/appointments/{appointmentID}/cancel", cfg.AppointmentsHandler.Cancel)
			if cfg.PaymentsHandler != nil {
				patient.Post("/appointments/{appointmentID}/payment-order", cfg.PaymentsHandler.CreateOrder)
			}
		})
	}

	// Admin endpoints
	if cfg.AdminSuspensions != nil {
		r.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			admin.Post("/admin/suspensions", cfg.AdminSuspensions.Suspend)
			admin.Delete("/admin/suspensions", cfg.AdminSuspensions.Reinstate)
		})
	}

	return r
}
