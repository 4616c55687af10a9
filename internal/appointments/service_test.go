package appointments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebook/carebook-platform/internal/directory"
	"github.com/carebook/carebook-platform/internal/slots"
	"github.com/carebook/carebook-platform/pkg/logging"
)

// Monday morning, before the working day starts.
var testNow = time.Date(2025, time.January, 6, 6, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []uuid.UUID
	cancelled []uuid.UUID
}

func (n *recordingNotifier) BookingConfirmed(ctx context.Context, appt *Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, appt.ID)
}

func (n *recordingNotifier) AppointmentCancelled(ctx context.Context, appt *Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, appt.ID)
}

type bookingFixture struct {
	svc      *Service
	store    *InMemoryStore
	profiles *directory.InMemoryRepository
	catalog  *slots.Catalog
	notifier *recordingNotifier
	doctor   *directory.Doctor
	patient  *directory.Patient
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	profiles := directory.NewInMemoryRepository()
	doctor := &directory.Doctor{
		ID:       uuid.New(),
		Name:     "Mehta",
		Email:    "dr.mehta@example.com",
		FeeCents: 1000,
		Approved: true,
		Active:   true,
		WorkingHours: directory.WorkingHours{
			"monday":  {Enabled: true, Start: "09:00", End: "17:00"},
			"tuesday": {Enabled: true, Start: "09:00", End: "17:00"},
		},
	}
	patient := &directory.Patient{ID: uuid.New(), Name: "Asha Rao", Email: "asha@example.com", Active: true}
	profiles.PutDoctor(doctor)
	profiles.PutPatient(patient)

	store := NewInMemoryStore()
	clock := slots.FixedClock{Instant: testNow}
	catalog := slots.NewCatalog(profiles, store, slots.Options{
		Clock:       clock,
		SlotSize:    time.Hour,
		HorizonDays: 7,
	})
	notifier := &recordingNotifier{}
	svc := NewService(store, profiles, catalog, clock, notifier, nil, logging.New("error"))
	return &bookingFixture{
		svc:      svc,
		store:    store,
		profiles: profiles,
		catalog:  catalog,
		notifier: notifier,
		doctor:   doctor,
		patient:  patient,
	}
}

func (f *bookingFixture) reserve(t *testing.T, label string) *Appointment {
	t.Helper()
	appt, err := f.svc.Reserve(context.Background(), ReserveRequest{
		DoctorID:  f.doctor.ID,
		PatientID: f.patient.ID,
		Date:      testNow,
		Time:      label,
	})
	require.NoError(t, err)
	return appt
}

func TestReserveHappyPath(t *testing.T) {
	f := newBookingFixture(t)

	appt := f.reserve(t, "10:00 AM")
	assert.Equal(t, StatusUpcoming, appt.Status)
	assert.Equal(t, PaymentNone, appt.PaymentStatus)
	assert.Equal(t, int64(1000), appt.FeeCents)
	assert.Equal(t, "Asha Rao", appt.PatientName) // defaulted from the profile
	assert.Len(t, f.notifier.confirmed, 1)
}

func TestReserveSameSlotConflicts(t *testing.T) {
	f := newBookingFixture(t)
	f.reserve(t, "10:00 AM")

	_, err := f.svc.Reserve(context.Background(), ReserveRequest{
		DoctorID:  f.doctor.ID,
		PatientID: f.patient.ID,
		Date:      testNow,
		Time:      "10:00 AM",
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	f := newBookingFixture(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Reserve(context.Background(), ReserveRequest{
				DoctorID:  f.doctor.ID,
				PatientID: f.patient.ID,
				Date:      testNow,
				Time:      "10:00 AM",
			})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrSlotTaken):
			lost++
		default:
			t.Fatalf("unexpected reserve error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, workers-1, lost)
}

func TestReserveOutsideWorkingHours(t *testing.T) {
	f := newBookingFixture(t)

	for _, label := range []string{"08:00 AM", "05:00 PM", "10:30 AM"} {
		_, err := f.svc.Reserve(context.Background(), ReserveRequest{
			DoctorID:  f.doctor.ID,
			PatientID: f.patient.ID,
			Date:      testNow,
			Time:      label,
		})
		assert.ErrorIs(t, err, ErrSlotUnavailable, "label %s", label)
	}
}

func TestReserveSuspendedParties(t *testing.T) {
	f := newBookingFixture(t)

	require.NoError(t, f.profiles.SetDoctorActive(context.Background(), f.doctor.ID, false))
	_, err := f.svc.Reserve(context.Background(), ReserveRequest{
		DoctorID:  f.doctor.ID,
		PatientID: f.patient.ID,
		Date:      testNow,
		Time:      "10:00 AM",
	})
	assert.ErrorIs(t, err, ErrDoctorSuspended)

	require.NoError(t, f.profiles.SetDoctorActive(context.Background(), f.doctor.ID, true))
	require.NoError(t, f.profiles.SetPatientActive(context.Background(), f.patient.ID, false))
	_, err = f.svc.Reserve(context.Background(), ReserveRequest{
		DoctorID:  f.doctor.ID,
		PatientID: f.patient.ID,
		Date:      testNow,
		Time:      "10:00 AM",
	})
	assert.ErrorIs(t, err, ErrPatientSuspended)
}

func TestFeeSnapshotSurvivesFeeChange(t *testing.T) {
	f := newBookingFixture(t)
	appt := f.reserve(t, "10:00 AM")

	// Doctor raises their fee after the booking.
	f.doctor.FeeCents = 5000
	f.profiles.PutDoctor(f.doctor)

	got, err := f.store.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.FeeCents)
}

func TestMarkPendingDoesNotDemotePaid(t *testing.T) {
	f := newBookingFixture(t)
	appt := f.reserve(t, "10:00 AM")

	paid, err := f.store.MarkPaid(context.Background(), appt.ID)
	require.NoError(t, err)
	require.True(t, paid)

	changed, err := f.store.MarkPaymentPending(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := f.store.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, got.PaymentStatus)
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newBookingFixture(t)
	appt := f.reserve(t, "10:00 AM")

	first, err := f.svc.Cancel(context.Background(), appt.ID, f.patient.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, first.Status)
	assert.Len(t, f.notifier.cancelled, 1)

	second, err := f.svc.Cancel(context.Background(), appt.ID, f.patient.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, second.Status)
	// No duplicate notification on the repeat.
	assert.Len(t, f.notifier.cancelled, 1)
}

func TestCancelRequiresOwnership(t *testing.T) {
	f := newBookingFixture(t)
	appt := f.reserve(t, "10:00 AM")

	_, err := f.svc.Cancel(context.Background(), appt.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCancelCompletedFails(t *testing.T) {
	f := newBookingFixture(t)
	appt := f.reserve(t, "10:00 AM")
	require.NoError(t, f.svc.Complete(context.Background(), appt.ID))

	_, err := f.svc.Cancel(context.Background(), appt.ID, f.patient.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelledSlotReappears(t *testing.T) {
	f := newBookingFixture(t)
	appt := f.reserve(t, "10:00 AM")

	available, err := f.catalog.Available(context.Background(), f.doctor.ID, testNow)
	require.NoError(t, err)
	day := testNow.Format(slots.DateFormat)
	assert.NotContains(t, available, slots.Slot{Date: day, Time: "10:00 AM"})

	_, err = f.svc.Cancel(context.Background(), appt.ID, f.patient.ID)
	require.NoError(t, err)

	available, err = f.catalog.Available(context.Background(), f.doctor.ID, testNow)
	require.NoError(t, err)
	assert.Contains(t, available, slots.Slot{Date: day, Time: "10:00 AM"})
}

func TestSuspensionCascadeCancelsUpcomingOnly(t *testing.T) {
	f := newBookingFixture(t)

	a := f.reserve(t, "09:00 AM")
	b := f.reserve(t, "10:00 AM")
	done := f.reserve(t, "11:00 AM")
	require.NoError(t, f.svc.Complete(context.Background(), done.ID))

	count, err := f.svc.CancelForSuspension(context.Background(), directory.PartyDoctor, f.doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		got, err := f.store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
	}
	got, err := f.store.Get(context.Background(), done.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Len(t, f.notifier.cancelled, 2)
}

func TestSuspensionCascadeForPatient(t *testing.T) {
	f := newBookingFixture(t)
	f.reserve(t, "09:00 AM")
	f.reserve(t, "10:00 AM")

	count, err := f.svc.CancelForSuspension(context.Background(), directory.PartyPatient, f.patient.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSuspensionCascadeRejectsUnknownParty(t *testing.T) {
	f := newBookingFixture(t)
	_, err := f.svc.CancelForSuspension(context.Background(), directory.PartyType("clinic"), f.patient.ID)
	assert.ErrorIs(t, err, ErrInvalidParty)
}

func TestListForPatientSplitsByStatusAndDate(t *testing.T) {
	f := newBookingFixture(t)

	upcoming := f.reserve(t, "09:00 AM")
	cancelled := f.reserve(t, "10:00 AM")
	_, err := f.svc.Cancel(context.Background(), cancelled.ID, f.patient.ID)
	require.NoError(t, err)

	// An appointment completed ahead of its date still lists as past.
	completed := f.reserve(t, "11:00 AM")
	require.NoError(t, f.svc.Complete(context.Background(), completed.ID))

	up, past, err := f.svc.ListForPatient(context.Background(), f.patient.ID)
	require.NoError(t, err)
	require.Len(t, up, 1)
	assert.Equal(t, upcoming.ID, up[0].ID)
	assert.Len(t, past, 2)
}
