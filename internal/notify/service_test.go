package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/carebook-platform/internal/appointments"
	"github.com/carebook/carebook-platform/internal/directory"
	"github.com/carebook/carebook-platform/internal/payments"
	"github.com/carebook/carebook-platform/pkg/logging"
)

type mockEmailSender struct {
	sent    []EmailMessage
	callErr error
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func seedProfiles(t *testing.T) (*directory.InMemoryRepository, *directory.Doctor, *directory.Patient) {
	t.Helper()
	repo := directory.NewInMemoryRepository()
	doctor := &directory.Doctor{
		ID:       uuid.New(),
		Name:     "Mehta",
		Email:    "dr.mehta@example.com",
		FeeCents: 1000,
		Approved: true,
		Active:   true,
	}
	patient := &directory.Patient{
		ID:     uuid.New(),
		Name:   "Asha Rao",
		Email:  "asha@example.com",
		Active: true,
	}
	repo.PutDoctor(doctor)
	repo.PutPatient(patient)
	return repo, doctor, patient
}

func testAppointment(doctor *directory.Doctor, patient *directory.Patient) *appointments.Appointment {
	return &appointments.Appointment{
		ID:        uuid.New(),
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
		Date:      time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Time:      "10:00 AM",
		FeeCents:  1000,
		Status:    appointments.StatusUpcoming,
	}
}

func TestBookingConfirmedEmailsPatient(t *testing.T) {
	repo, doctor, patient := seedProfiles(t)
	email := &mockEmailSender{}
	svc := NewService(email, repo, logging.New("error"))

	svc.BookingConfirmed(context.Background(), testAppointment(doctor, patient))

	if len(email.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.sent))
	}
	msg := email.sent[0]
	if msg.To != patient.Email {
		t.Errorf("expected email to %s, got %s", patient.Email, msg.To)
	}
	if !strings.Contains(msg.Body, "Dr. Mehta") {
		t.Errorf("expected body to mention the doctor, got %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "10:00 AM") {
		t.Errorf("expected body to mention the slot time, got %q", msg.Body)
	}
}

func TestAppointmentCancelledEmailsPatient(t *testing.T) {
	repo, doctor, patient := seedProfiles(t)
	email := &mockEmailSender{}
	svc := NewService(email, repo, logging.New("error"))

	svc.AppointmentCancelled(context.Background(), testAppointment(doctor, patient))

	if len(email.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.sent))
	}
	if !strings.Contains(email.sent[0].Subject, "cancelled") {
		t.Errorf("unexpected subject %q", email.sent[0].Subject)
	}
}

func TestPaymentReceivedIncludesAmount(t *testing.T) {
	repo, doctor, patient := seedProfiles(t)
	email := &mockEmailSender{}
	svc := NewService(email, repo, logging.New("error"))

	appt := testAppointment(doctor, patient)
	order := &payments.Order{
		ID:            "order_123",
		AppointmentID: appt.ID,
		AmountCents:   1000,
		Currency:      "INR",
		Status:        payments.OrderSettled,
	}
	svc.PaymentReceived(context.Background(), appt, order)

	if len(email.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.sent))
	}
	body := email.sent[0].Body
	if !strings.Contains(body, "10.00") {
		t.Errorf("expected amount in body, got %q", body)
	}
	if !strings.Contains(body, "order_123") {
		t.Errorf("expected order reference in body, got %q", body)
	}
}

func TestSendFailureIsSwallowed(t *testing.T) {
	repo, doctor, patient := seedProfiles(t)
	email := &mockEmailSender{callErr: errors.New("smtp down")}
	svc := NewService(email, repo, logging.New("error"))

	// Must not panic or propagate; the booking flow never sees email errors.
	svc.BookingConfirmed(context.Background(), testAppointment(doctor, patient))
}

func TestUnknownPatientSkipsSend(t *testing.T) {
	repo, doctor, _ := seedProfiles(t)
	email := &mockEmailSender{}
	svc := NewService(email, repo, logging.New("error"))

	appt := testAppointment(doctor, &directory.Patient{ID: uuid.New()})
	svc.BookingConfirmed(context.Background(), appt)

	if len(email.sent) != 0 {
		t.Fatalf("expected no email for unknown patient, got %d", len(email.sent))
	}
}
