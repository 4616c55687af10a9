package appointments

import "errors"

var (
	// ErrNotFound is returned when no appointment exists for the id.
	ErrNotFound = errors.New("appointment not found")

	// ErrSlotTaken is the conflict a reservation race loser observes.
	// Retryable with a different slot.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrSlotUnavailable is returned when the requested (date, time) is not
	// a slot the doctor's working hours offer, or is in the past.
	ErrSlotUnavailable = errors.New("slot not offered")

	// ErrDoctorSuspended is returned when the doctor is unapproved or suspended.
	ErrDoctorSuspended = errors.New("doctor is not accepting bookings")

	// ErrPatientSuspended is returned when the booking patient is suspended.
	ErrPatientSuspended = errors.New("patient account is suspended")

	// ErrInvalidTransition is returned for mutations of terminal appointments.
	// Not retryable; indicates a caller logic error.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotOwner is returned when a patient tries to cancel someone else's
	// appointment.
	ErrNotOwner = errors.New("appointment belongs to another patient")

	// ErrInvalidParty is returned for unknown suspension party types.
	ErrInvalidParty = errors.New("unknown party type")
)
