package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carebook/carebook-platform/internal/directory"
	"github.com/carebook/carebook-platform/internal/observability/metrics"
	"github.com/carebook/carebook-platform/internal/slots"
	"github.com/carebook/carebook-platform/pkg/logging"
)

var bookingTracer = otel.Tracer("carebook.internal.appointments")

// Notifier delivers fire-and-forget booking notifications. Implementations
// must never fail the calling flow; errors stay inside the notifier.
type Notifier interface {
	BookingConfirmed(ctx context.Context, appt *Appointment)
	AppointmentCancelled(ctx context.Context, appt *Appointment)
}

// Service owns the booking lifecycle: reservation, cancellation, completion,
// and the suspension cascade.
type Service struct {
	store    Store
	profiles directory.Repository
	catalog  *slots.Catalog
	clock    slots.Clock
	notifier Notifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

// NewService constructs the booking service.
func NewService(store Store, profiles directory.Repository, catalog *slots.Catalog, clock slots.Clock, notifier Notifier, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if store == nil {
		panic("appointments: store required")
	}
	if profiles == nil {
		panic("appointments: directory required")
	}
	if catalog == nil {
		panic("appointments: slot catalog required")
	}
	if clock == nil {
		clock = slots.SystemClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		profiles: profiles,
		catalog:  catalog,
		clock:    clock,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// ReserveRequest carries a booking attempt.
type ReserveRequest struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      time.Time
	Time      string

	PatientName string
	Symptoms    string
	Reasons     string
}

// Reserve atomically claims a slot. Validation happens against the live
// directory and working hours; the slot race itself resolves in the store,
// so the loser of two concurrent attempts always observes ErrSlotTaken.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("carebook.doctor_id", req.DoctorID.String()),
		attribute.String("carebook.patient_id", req.PatientID.String()),
	)

	doctor, err := s.profiles.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.Bookable() {
		s.metrics.ObserveReservation("rejected")
		return nil, ErrDoctorSuspended
	}

	patient, err := s.profiles.GetPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !patient.Active {
		s.metrics.ObserveReservation("rejected")
		return nil, ErrPatientSuspended
	}

	offered, err := s.catalog.Offered(doctor, req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if !offered {
		s.metrics.ObserveReservation("rejected")
		return nil, ErrSlotUnavailable
	}

	name := strings.TrimSpace(req.PatientName)
	if name == "" {
		name = patient.Name
	}

	appt := &Appointment{
		ID:            uuid.New(),
		DoctorID:      req.DoctorID,
		PatientID:     req.PatientID,
		Date:          truncateDay(req.Date),
		Time:          req.Time,
		FeeCents:      doctor.FeeCents, // snapshot; later fee changes never touch this
		Status:        StatusUpcoming,
		PaymentStatus: PaymentNone,
		PatientName:   name,
		Symptoms:      req.Symptoms,
		Reasons:       req.Reasons,
	}

	if err := s.store.Create(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.ObserveReservation("conflict")
			return nil, ErrSlotTaken
		}
		span.RecordError(err)
		return nil, err
	}

	s.metrics.ObserveReservation("reserved")
	s.logger.Info("appointment reserved",
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
		"patient_id", appt.PatientID,
		"date", appt.Date.Format(slots.DateFormat),
		"time", appt.Time,
	)
	if s.notifier != nil {
		s.notifier.BookingConfirmed(ctx, appt)
	}
	return appt, nil
}

// Cancel is the patient self-cancel path. It is idempotent: cancelling an
// already-cancelled appointment succeeds without effect.
func (s *Service) Cancel(ctx context.Context, apptID, requesterID uuid.UUID) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.cancel")
	defer span.End()

	appt, err := s.store.Get(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != requesterID {
		return nil, ErrNotOwner
	}

	changed, err := s.store.Cancel(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.ObserveCancellation("patient")
		s.logger.Info("appointment cancelled", "appointment_id", apptID, "patient_id", requesterID)
		if s.notifier != nil {
			s.notifier.AppointmentCancelled(ctx, appt)
		}
	}
	appt.Status = StatusCancelled
	return appt, nil
}

// Complete records the visit-completion transition driven by an external
// workflow. Completion is never inferred from the date passing.
func (s *Service) Complete(ctx context.Context, apptID uuid.UUID) error {
	if err := s.store.Complete(ctx, apptID); err != nil {
		return err
	}
	s.logger.Info("appointment completed", "appointment_id", apptID)
	return nil
}

// CancelForSuspension walks the party's upcoming appointments and cancels
// each through the same transition as self-cancel. Storage failures on
// individual rows do not abort the walk; the count reflects what actually
// got cancelled and the joined error reports what did not.
func (s *Service) CancelForSuspension(ctx context.Context, party directory.PartyType, partyID uuid.UUID) (int, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.suspension_cascade")
	defer span.End()
	span.SetAttributes(attribute.String("carebook.party", string(party)))

	if !party.Valid() {
		return 0, ErrInvalidParty
	}

	ids, err := s.store.ListUpcomingIDs(ctx, party, partyID)
	if err != nil {
		return 0, fmt.Errorf("appointments: cascade list: %w", err)
	}

	cancelled := 0
	var errs []error
	for _, id := range ids {
		changed, err := s.store.Cancel(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("cancel %s: %w", id, err))
			continue
		}
		if !changed {
			continue
		}
		cancelled++
		if s.notifier != nil {
			if appt, err := s.store.Get(ctx, id); err == nil {
				s.notifier.AppointmentCancelled(ctx, appt)
			}
		}
	}

	s.metrics.ObserveCascade(string(party), cancelled)
	s.logger.Info("suspension cascade finished",
		"party", party,
		"party_id", partyID,
		"cancelled", cancelled,
		"failed", len(errs),
	)
	return cancelled, errors.Join(errs...)
}

// ListForPatient splits the patient's ledger into upcoming and past visits.
// Status is authoritative; date only demotes stale upcoming appointments.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) (upcoming, past []*Appointment, err error) {
	all, err := s.store.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}
	today := s.clock.Now()
	upcoming = make([]*Appointment, 0)
	past = make([]*Appointment, 0)
	for _, appt := range all {
		if appt.Past(today) {
			past = append(past, appt)
		} else {
			upcoming = append(upcoming, appt)
		}
	}
	return upcoming, past, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
