package directory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PartyType distinguishes the two kinds of profiles the platform manages.
type PartyType string

const (
	PartyDoctor  PartyType = "doctor"
	PartyPatient PartyType = "patient"
)

// Valid reports whether the party type is one of the known values.
func (p PartyType) Valid() bool {
	return p == PartyDoctor || p == PartyPatient
}

// DayHours describes a doctor's working window for a single weekday.
// Start and End are wall-clock times in "15:04" form.
type DayHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// WorkingHours maps lowercase weekday names ("monday"..."sunday") to hours.
type WorkingHours map[string]DayHours

var weekdayNames = map[time.Weekday]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

// ForWeekday returns the configured hours for the given weekday.
func (w WorkingHours) ForWeekday(day time.Weekday) (DayHours, bool) {
	hours, ok := w[weekdayNames[day]]
	return hours, ok
}

// Minutes parses a "15:04" wall-clock string into minutes from midnight.
func Minutes(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("directory: invalid wall-clock time %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Doctor is a bookable provider profile. The booking core treats doctors as
// read-only; mutations happen through admin flows.
type Doctor struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Specialization string       `json:"specialization"`
	FeeCents       int64        `json:"consultation_fee_cents"`
	Approved       bool         `json:"approved"`
	Active         bool         `json:"active"`
	WorkingHours   WorkingHours `json:"working_hours"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Bookable reports whether the doctor may be offered slots. Approval and
// suspension are tracked separately; both must hold.
func (d *Doctor) Bookable() bool {
	return d.Approved && d.Active
}

// Patient is a patient profile; Active is false while suspended.
type Patient struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
