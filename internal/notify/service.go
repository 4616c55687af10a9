package notify

import (
	"context"
	"fmt"

	"github.com/carebook/carebook-platform/internal/appointments"
	"github.com/carebook/carebook-platform/internal/directory"
	"github.com/carebook/carebook-platform/internal/payments"
	"github.com/carebook/carebook-platform/pkg/logging"
)

// Service sends booking and payment emails to patients. Every method is
// fire-and-forget: delivery failures are logged and never surface to the
// flow that triggered them.
type Service struct {
	email    EmailSender
	profiles directory.Repository
	logger   *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, profiles directory.Repository, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:    email,
		profiles: profiles,
		logger:   logger,
	}
}

// BookingConfirmed emails the patient their reservation details.
func (s *Service) BookingConfirmed(ctx context.Context, appt *appointments.Appointment) {
	patient, doctor, ok := s.lookup(ctx, appt)
	if !ok {
		return
	}

	msg := EmailMessage{
		To:      patient.Email,
		ToName:  patient.Name,
		Subject: "Your appointment is confirmed",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour appointment with Dr. %s is confirmed for %s at %s.\nConsultation fee: %s.\n\nCareBook",
			patient.Name,
			doctor.Name,
			appt.Date.Format("Monday, January 2, 2006"),
			appt.Time,
			formatAmount(appt.FeeCents),
		),
	}
	s.send(ctx, "booking_confirmed", msg)
}

// AppointmentCancelled emails the patient that the visit will not happen.
// Used by both self-cancel and the suspension cascade.
func (s *Service) AppointmentCancelled(ctx context.Context, appt *appointments.Appointment) {
	patient, doctor, ok := s.lookup(ctx, appt)
	if !ok {
		return
	}

	msg := EmailMessage{
		To:      patient.Email,
		ToName:  patient.Name,
		Subject: "Your appointment was cancelled",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour appointment with Dr. %s on %s at %s has been cancelled.\n\nCareBook",
			patient.Name,
			doctor.Name,
			appt.Date.Format("Monday, January 2, 2006"),
			appt.Time,
		),
	}
	s.send(ctx, "appointment_cancelled", msg)
}

// PaymentReceived emails the patient a settlement receipt.
func (s *Service) PaymentReceived(ctx context.Context, appt *appointments.Appointment, order *payments.Order) {
	patient, doctor, ok := s.lookup(ctx, appt)
	if !ok {
		return
	}

	msg := EmailMessage{
		To:      patient.Email,
		ToName:  patient.Name,
		Subject: "Payment received",
		Body: fmt.Sprintf(
			"Hi %s,\n\nWe received your payment of %s for the appointment with Dr. %s on %s at %s.\nOrder reference: %s.\n\nCareBook",
			patient.Name,
			formatAmount(order.AmountCents),
			doctor.Name,
			appt.Date.Format("Monday, January 2, 2006"),
			appt.Time,
			order.ID,
		),
	}
	s.send(ctx, "payment_received", msg)
}

func (s *Service) lookup(ctx context.Context, appt *appointments.Appointment) (*directory.Patient, *directory.Doctor, bool) {
	if s.email == nil || s.profiles == nil {
		return nil, nil, false
	}
	patient, err := s.profiles.GetPatient(ctx, appt.PatientID)
	if err != nil {
		s.logger.Error("notify: patient lookup failed", "error", err, "patient_id", appt.PatientID)
		return nil, nil, false
	}
	doctor, err := s.profiles.GetDoctor(ctx, appt.DoctorID)
	if err != nil {
		s.logger.Error("notify: doctor lookup failed", "error", err, "doctor_id", appt.DoctorID)
		return nil, nil, false
	}
	if patient.Email == "" {
		s.logger.Debug("notify: patient has no email", "patient_id", patient.ID)
		return nil, nil, false
	}
	return patient, doctor, true
}

func (s *Service) send(ctx context.Context, kind string, msg EmailMessage) {
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: send failed", "kind", kind, "error", err, "to", msg.To)
		return
	}
	s.logger.Info("notification sent", "kind", kind, "to", msg.To)
}

// formatAmount renders a smallest-unit amount as rupees.
func formatAmount(cents int64) string {
	return fmt.Sprintf("₹%.2f", float64(cents)/100)
}

var _ appointments.Notifier = (*Service)(nil)
var _ payments.ReceiptNotifier = (*Service)(nil)
