package clinic

import (
	"strings"
	"time"
)

// Work-shift labels a dentist can register availability for.
const (
	ShiftMorning   = "morning"
	ShiftAfternoon = "afternoon"
	ShiftEvening   = "evening"
)

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// TimeFormat is the wire format for times of day.
const TimeFormat = "15:04"

// ValidShift reports whether the trimmed label is one of the known shifts.
func ValidShift(label string) bool {
	switch strings.TrimSpace(label) {
	case ShiftMorning, ShiftAfternoon, ShiftEvening:
		return true
	}
	return false
}

// DateOf truncates a timestamp to its calendar date in its own location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStartOf returns the configured first day of the calendar week
// containing d, date-only. Used for weekly grouping of schedules.
func WeekStartOf(d time.Time, weekStart time.Weekday) time.Time {
	d = DateOf(d)
	offset := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// At combines a calendar date with a time of day in the date's location.
func At(date time.Time, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, date.Location())
}
