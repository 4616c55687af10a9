package appointments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"upcoming to completed", StatusUpcoming, StatusCompleted, true},
		{"upcoming to cancelled", StatusUpcoming, StatusCancelled, true},
		{"completed to cancelled", StatusCompleted, StatusCancelled, false},
		{"cancelled to completed", StatusCancelled, StatusCompleted, false},
		{"completed to upcoming", StatusCompleted, StatusUpcoming, false},
		{"cancelled to upcoming", StatusCancelled, StatusUpcoming, false},
		{"upcoming to upcoming", StatusUpcoming, StatusUpcoming, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidTransition(tt.from, tt.to))
		})
	}
}

func TestPastClassification(t *testing.T) {
	today := time.Date(2026, 9, 10, 8, 30, 0, 0, time.UTC)
	day := func(d int) time.Time {
		return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name   string
		status Status
		date   time.Time
		past   bool
	}{
		{"upcoming today", StatusUpcoming, day(10), false},
		{"upcoming tomorrow", StatusUpcoming, day(11), false},
		{"upcoming yesterday is stale", StatusUpcoming, day(9), true},
		{"cancelled yesterday", StatusCancelled, day(9), true},
		// Terminal status wins over a future date.
		{"cancelled tomorrow", StatusCancelled, day(11), true},
		{"completed tomorrow", StatusCompleted, day(11), true},
		{"completed today", StatusCompleted, day(10), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appt := &Appointment{Status: tt.status, Date: tt.date}
			assert.Equal(t, tt.past, appt.Past(today))
		})
	}
}
