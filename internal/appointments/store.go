package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/carebook-platform/internal/directory"
	"github.com/carebook/carebook-platform/internal/slots"
)

// Store is the durable appointment ledger. Implementations must make Create
// atomic with respect to the one-active-appointment-per-slot invariant: two
// concurrent creates for the same (doctor, date, time) yield exactly one
// success and one ErrSlotTaken.
type Store interface {
	Create(ctx context.Context, appt *Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	ListUpcomingIDs(ctx context.Context, party directory.PartyType, partyID uuid.UUID) ([]uuid.UUID, error)

	// Cancel transitions upcoming → cancelled. It reports (true, nil) when the
	// transition happened now, (false, nil) when the appointment was already
	// cancelled, and ErrInvalidTransition for completed appointments.
	Cancel(ctx context.Context, id uuid.UUID) (bool, error)

	// Complete transitions upcoming → completed.
	Complete(ctx context.Context, id uuid.UUID) error

	// MarkPaymentPending and MarkPaid mutate the payment side, guarded so the
	// write only lands while the appointment is still upcoming. A paid
	// appointment never goes back to pending.
	MarkPaymentPending(ctx context.Context, id uuid.UUID) (bool, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)

	// BookedSlots reports held (date, time) keys for the slot catalog.
	BookedSlots(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (map[string]struct{}, error)
}

// InMemoryStore implements Store with a mutex. The coarse lock gives the same
// linearizable check-then-insert the database's partial unique index gives.
type InMemoryStore struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*Appointment
	bySlot map[string]uuid.UUID // doctorID|date|label → active appointment
}

// NewInMemoryStore creates an empty ledger.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[uuid.UUID]*Appointment),
		bySlot: make(map[string]uuid.UUID),
	}
}

func slotKey(doctorID uuid.UUID, date time.Time, label string) string {
	return doctorID.String() + "|" + slots.Key(date.Format(slots.DateFormat), label)
}

// Create inserts the appointment unless its slot is held by a non-cancelled one.
func (s *InMemoryStore) Create(ctx context.Context, appt *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey(appt.DoctorID, appt.Date, appt.Time)
	if _, taken := s.bySlot[key]; taken {
		return ErrSlotTaken
	}

	now := time.Now().UTC()
	copied := *appt
	copied.CreatedAt = now
	copied.UpdatedAt = now
	s.byID[copied.ID] = &copied
	s.bySlot[key] = copied.ID

	appt.CreatedAt = now
	appt.UpdatedAt = now
	return nil
}

// Get returns a copy of the appointment.
func (s *InMemoryStore) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

// ListByPatient returns the patient's appointments ordered by date and slot.
func (s *InMemoryStore) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Appointment, 0)
	for _, appt := range s.byID {
		if appt.PatientID == patientID {
			copied := *appt
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		mi, _ := slots.ParseLabel(out[i].Time)
		mj, _ := slots.ParseLabel(out[j].Time)
		return mi < mj
	})
	return out, nil
}

// ListUpcomingIDs returns ids of the party's upcoming appointments.
func (s *InMemoryStore) ListUpcomingIDs(ctx context.Context, party directory.PartyType, partyID uuid.UUID) ([]uuid.UUID, error) {
	if !party.Valid() {
		return nil, ErrInvalidParty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, 0)
	for _, appt := range s.byID {
		if appt.Status != StatusUpcoming {
			continue
		}
		if (party == directory.PartyDoctor && appt.DoctorID == partyID) ||
			(party == directory.PartyPatient && appt.PatientID == partyID) {
			ids = append(ids, appt.ID)
		}
	}
	return ids, nil
}

// Cancel applies the shared upcoming → cancelled transition.
func (s *InMemoryStore) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if appt.Status == StatusCancelled {
		return false, nil
	}
	if !ValidTransition(appt.Status, StatusCancelled) {
		return false, ErrInvalidTransition
	}
	appt.Status = StatusCancelled
	appt.UpdatedAt = time.Now().UTC()
	delete(s.bySlot, slotKey(appt.DoctorID, appt.Date, appt.Time))
	return true, nil
}

// Complete applies the upcoming → completed transition.
func (s *InMemoryStore) Complete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if !ValidTransition(appt.Status, StatusCompleted) {
		return ErrInvalidTransition
	}
	appt.Status = StatusCompleted
	appt.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkPaymentPending sets payment_status = pending while still upcoming.
// It never demotes a paid appointment.
func (s *InMemoryStore) MarkPaymentPending(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.setPayment(id, PaymentPending)
}

// MarkPaid sets payment_status = paid while still upcoming.
func (s *InMemoryStore) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.setPayment(id, PaymentPaid)
}

func (s *InMemoryStore) setPayment(id uuid.UUID, status PaymentStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if appt.Status != StatusUpcoming {
		return false, nil
	}
	if status == PaymentPending && appt.PaymentStatus == PaymentPaid {
		return false, nil
	}
	appt.PaymentStatus = status
	appt.UpdatedAt = time.Now().UTC()
	return true, nil
}

// BookedSlots reports slot keys held by non-cancelled appointments.
func (s *InMemoryStore) BookedSlots(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	held := make(map[string]struct{})
	for _, appt := range s.byID {
		if appt.DoctorID != doctorID || appt.Status == StatusCancelled {
			continue
		}
		if appt.Date.Before(from) || !appt.Date.Before(to) {
			continue
		}
		held[slots.Key(appt.Date.Format(slots.DateFormat), appt.Time)] = struct{}{}
	}
	return held, nil
}
