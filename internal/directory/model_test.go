package directory

import (
	"testing"
	"time"
)

func TestWorkingHoursForWeekday(t *testing.T) {
	hours := WorkingHours{
		"monday": {Enabled: true, Start: "09:00", End: "17:00"},
		"sunday": {Enabled: false},
	}

	monday, ok := hours.ForWeekday(time.Monday)
	if !ok || !monday.Enabled || monday.Start != "09:00" {
		t.Fatalf("unexpected monday hours: %+v ok=%v", monday, ok)
	}

	sunday, ok := hours.ForWeekday(time.Sunday)
	if !ok || sunday.Enabled {
		t.Fatalf("expected disabled sunday, got %+v ok=%v", sunday, ok)
	}

	if _, ok := hours.ForWeekday(time.Tuesday); ok {
		t.Fatal("expected missing tuesday entry")
	}
}

func TestMinutes(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:00", want: 540},
		{in: "13:30", want: 810},
		{in: "9am", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Minutes(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Minutes(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Minutes(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Minutes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDoctorBookable(t *testing.T) {
	cases := []struct {
		approved, active, want bool
	}{
		{true, true, true},
		{true, false, false},
		{false, true, false},
		{false, false, false},
	}
	for _, c := range cases {
		d := &Doctor{Approved: c.approved, Active: c.active}
		if d.Bookable() != c.want {
			t.Errorf("approved=%v active=%v: Bookable() = %v, want %v", c.approved, c.active, d.Bookable(), c.want)
		}
	}
}
