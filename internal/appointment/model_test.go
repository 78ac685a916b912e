package appointment

import (
	"testing"
	"time"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts
}

func TestOverlaps(t *testing.T) {
	nineAM := "2025-06-02T09:00:00Z"

	cases := []struct {
		name     string
		aStart   string
		aMinutes int
		bStart   string
		bMinutes int
		want     bool
	}{
		{"identical windows", nineAM, 30, nineAM, 30, true},
		{"second starts inside first", nineAM, 30, "2025-06-02T09:15:00Z", 30, true},
		{"first starts inside second", "2025-06-02T09:15:00Z", 30, nineAM, 30, true},
		{"second contained in first", nineAM, 60, "2025-06-02T09:15:00Z", 15, true},
		{"back to back", nineAM, 30, "2025-06-02T09:30:00Z", 30, false},
		{"back to back reversed", "2025-06-02T09:30:00Z", 30, nineAM, 30, false},
		{"disjoint", nineAM, 30, "2025-06-02T11:00:00Z", 30, false},
		{"zero length at start", nineAM, 30, nineAM, 0, false},
		{"zero length inside", nineAM, 30, "2025-06-02T09:10:00Z", 0, false},
		{"both zero length", nineAM, 0, nineAM, 0, false},
		{"one minute overlap", nineAM, 30, "2025-06-02T09:29:00Z", 30, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := at(t, tc.aStart)
			b := at(t, tc.bStart)
			if got := Overlaps(a, tc.aMinutes, b, tc.bMinutes); got != tc.want {
				t.Errorf("Overlaps(%s+%dm, %s+%dm) = %v, want %v",
					tc.aStart, tc.aMinutes, tc.bStart, tc.bMinutes, got, tc.want)
			}
			// The test is symmetric by definition.
			if got := Overlaps(b, tc.bMinutes, a, tc.aMinutes); got != tc.want {
				t.Errorf("Overlaps is not symmetric for %s", tc.name)
			}
		})
	}
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusScheduled, StatusConfirmed, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusNoShow, true},
		{StatusConfirmed, StatusInProgress, true},
		{StatusConfirmed, StatusNoShow, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusNoShow, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusNoShow, StatusConfirmed, false},
		{StatusScheduled, StatusScheduled, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStatusActive(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted} {
		if !s.Active() {
			t.Errorf("%s should hold its window", s)
		}
	}
	for _, s := range []Status{StatusCancelled, StatusNoShow} {
		if s.Active() {
			t.Errorf("%s should free its window", s)
		}
	}
}

func TestEnd(t *testing.T) {
	a := Appointment{StartTime: at(t, "2025-06-02T09:00:00Z"), DurationMinutes: 45}
	if got := a.End(); !got.Equal(at(t, "2025-06-02T09:45:00Z")) {
		t.Errorf("End() = %s", got)
	}
}
