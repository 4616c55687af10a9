package slots

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/carebook-platform/internal/directory"
)

const (
	// DateFormat is the wire format for calendar days.
	DateFormat = "2006-01-02"

	// LabelFormat is the wire format for slot times, e.g. "10:00 AM".
	LabelFormat = "03:04 PM"
)

// Slot is one bookable (date, time) pair.
type Slot struct {
	Date string `json:"date"` // DateFormat
	Time string `json:"time"` // LabelFormat
}

// Key builds the lookup key for a (date, time) pair.
func Key(date, label string) string {
	return date + "|" + label
}

// Label renders minutes-from-midnight as a slot label.
func Label(minutes int) string {
	return time.Date(2000, time.January, 1, minutes/60, minutes%60, 0, 0, time.UTC).Format(LabelFormat)
}

// ParseLabel converts a slot label back to minutes from midnight.
func ParseLabel(label string) (int, error) {
	t, err := time.Parse(LabelFormat, label)
	if err != nil {
		return 0, fmt.Errorf("slots: invalid slot label %q: %w", label, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// DoctorSource provides the doctor profiles the catalog reads.
type DoctorSource interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*directory.Doctor, error)
}

// BookedLookup reports which slots are already held by non-cancelled
// appointments. Keys are built with Key.
type BookedLookup interface {
	BookedSlots(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (map[string]struct{}, error)
}

// Options tune catalog generation.
type Options struct {
	Clock       Clock         // defaults to SystemClock
	SlotSize    time.Duration // defaults to 30 minutes
	HorizonDays int           // defaults to 30
}

// Catalog computes bookable slots from working hours and existing bookings.
// All reads, no side effects.
type Catalog struct {
	doctors     DoctorSource
	booked      BookedLookup
	clock       Clock
	slotMinutes int
	horizonDays int
}

// NewCatalog creates a catalog over the given doctor and booking sources.
func NewCatalog(doctors DoctorSource, booked BookedLookup, opts Options) *Catalog {
	if doctors == nil {
		panic("slots: doctor source required")
	}
	if booked == nil {
		panic("slots: booked lookup required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	size := int(opts.SlotSize.Minutes())
	if size <= 0 {
		size = 30
	}
	horizon := opts.HorizonDays
	if horizon <= 0 {
		horizon = 30
	}
	return &Catalog{
		doctors:     doctors,
		booked:      booked,
		clock:       clock,
		slotMinutes: size,
		horizonDays: horizon,
	}
}

// Available returns the doctor's open slots from the given day forward, in
// chronological order. Suspended or unapproved doctors yield an empty list.
// Slots at or after "now" are kept; everything earlier is dropped.
func (c *Catalog) Available(ctx context.Context, doctorID uuid.UUID, from time.Time) ([]Slot, error) {
	doctor, err := c.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.Bookable() {
		return []Slot{}, nil
	}

	now := c.clock.Now()
	today := truncateDay(now)
	start := truncateDay(from)
	if start.Before(today) {
		start = today
	}
	end := today.AddDate(0, 0, c.horizonDays)
	if !start.Before(end) {
		return []Slot{}, nil
	}

	held, err := c.booked.BookedSlots(ctx, doctorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("slots: load booked slots: %w", err)
	}

	nowMinutes := now.Hour()*60 + now.Minute()
	out := []Slot{}
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		hours, ok := doctor.WorkingHours.ForWeekday(day.Weekday())
		if !ok || !hours.Enabled {
			continue
		}
		dayStart, dayEnd, err := windowMinutes(hours)
		if err != nil {
			return nil, err
		}
		date := day.Format(DateFormat)
		for m := dayStart; m+c.slotMinutes <= dayEnd; m += c.slotMinutes {
			if day.Equal(today) && m < nowMinutes {
				continue
			}
			label := Label(m)
			if _, taken := held[Key(date, label)]; taken {
				continue
			}
			out = append(out, Slot{Date: date, Time: label})
		}
	}
	return out, nil
}

// Offered reports whether the doctor's working hours produce the given
// (date, label) slot and the slot is not in the past. Existing bookings are
// not consulted; the ledger's uniqueness constraint settles races.
func (c *Catalog) Offered(doctor *directory.Doctor, date time.Time, label string) (bool, error) {
	day := truncateDay(date)
	now := c.clock.Now()
	today := truncateDay(now)
	if day.Before(today) {
		return false, nil
	}
	if day.After(today.AddDate(0, 0, c.horizonDays-1)) {
		return false, nil
	}

	hours, ok := doctor.WorkingHours.ForWeekday(day.Weekday())
	if !ok || !hours.Enabled {
		return false, nil
	}
	dayStart, dayEnd, err := windowMinutes(hours)
	if err != nil {
		return false, err
	}
	m, err := ParseLabel(label)
	if err != nil {
		return false, nil
	}
	if m < dayStart || m+c.slotMinutes > dayEnd || (m-dayStart)%c.slotMinutes != 0 {
		return false, nil
	}
	if day.Equal(today) && m < now.Hour()*60+now.Minute() {
		return false, nil
	}
	return true, nil
}

func windowMinutes(hours directory.DayHours) (int, int, error) {
	start, err := directory.Minutes(hours.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err := directory.Minutes(hours.End)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
