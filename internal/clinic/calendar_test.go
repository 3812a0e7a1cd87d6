package clinic

import (
	"testing"
	"time"
)

func TestValidShift(t *testing.T) {
	for _, label := range []string{ShiftMorning, ShiftAfternoon, ShiftEvening, " morning "} {
		if !ValidShift(label) {
			t.Errorf("ValidShift(%q) = false, want true", label)
		}
	}
	for _, label := range []string{"", "night", "MORNING "} {
		if ValidShift(label) {
			t.Errorf("ValidShift(%q) = true, want false", label)
		}
	}
}

func TestWeekStartOf(t *testing.T) {
	tests := []struct {
		day       string
		weekStart time.Weekday
		want      string
	}{
		{"2026-03-04", time.Monday, "2026-03-02"},  // Wednesday
		{"2026-03-02", time.Monday, "2026-03-02"},  // Monday itself
		{"2026-03-08", time.Monday, "2026-03-02"},  // Sunday closes the week
		{"2026-03-04", time.Sunday, "2026-03-01"},  // Sunday-start calendars
		{"2026-01-01", time.Monday, "2025-12-29"},  // year boundary
	}
	for _, tt := range tests {
		day, err := time.Parse(DateFormat, tt.day)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.day, err)
		}
		got := WeekStartOf(day, tt.weekStart).Format(DateFormat)
		if got != tt.want {
			t.Errorf("WeekStartOf(%s, %v) = %s, want %s", tt.day, tt.weekStart, got, tt.want)
		}
	}
}

func TestDateOfStripsClock(t *testing.T) {
	ts := time.Date(2026, 3, 2, 17, 45, 12, 999, time.UTC)
	got := DateOf(ts)
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
		t.Errorf("DateOf left clock fields: %v", got)
	}
	if got.Year() != 2026 || got.Month() != time.March || got.Day() != 2 {
		t.Errorf("DateOf changed the date: %v", got)
	}
}

func TestAtCombinesDateAndClock(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	clock, _ := time.Parse(TimeFormat, "14:30")
	got := At(date, clock)
	want := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("At = %v, want %v", got, want)
	}
}
