package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Status is the appointment lifecycle state. Upcoming is the only
// non-terminal state; completed and cancelled are final.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus tracks the settlement side of an appointment. It is additive
// to Status, not a fourth lifecycle state.
type PaymentStatus string

const (
	PaymentNone    PaymentStatus = "none"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// ValidTransition is the single rule every status mutation goes through:
// only upcoming appointments move, and only to a terminal state.
func ValidTransition(from, to Status) bool {
	return from == StatusUpcoming && (to == StatusCompleted || to == StatusCancelled)
}

// Appointment is the durable booking record. FeeCents is snapshotted from the
// doctor's fee at reservation time and never changes afterwards.
type Appointment struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	PatientID uuid.UUID `json:"patient_id"`

	Date time.Time `json:"date"` // calendar day, UTC midnight
	Time string    `json:"time"` // slot label, e.g. "10:00 AM"

	FeeCents      int64         `json:"consultation_fee_cents"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`

	// Visit metadata, opaque to the booking core.
	PatientName string `json:"patient_name"`
	Symptoms    string `json:"symptoms,omitempty"`
	Reasons     string `json:"reasons,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Past classifies the appointment for listings. Status is authoritative:
// any terminal appointment is a past visit even if its date is in the
// future. Date only breaks the tie for appointments still upcoming.
func (a *Appointment) Past(today time.Time) bool {
	if a.Status != StatusUpcoming {
		return true
	}
	y, m, d := today.UTC().Date()
	return a.Date.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
