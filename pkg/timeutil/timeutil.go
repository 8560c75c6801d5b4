// Package timeutil provides the day-granularity time math used by the
// application lifecycle. All calculations are in UTC; applicant-facing day
// counts round up so "1 day remaining" never understates the wait.
package timeutil

import (
	"fmt"
	"time"
)

// Common date/time formats.
const (
	DateFormat     = "2006-01-02"
	DateTimeFormat = "2006-01-02 15:04"
)

// StartOfDay returns midnight UTC of the given time's date.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// DaysSince returns the number of whole calendar days elapsed since t.
func DaysSince(t time.Time) int {
	return DaysBetween(t, time.Now())
}

// DaysUntilCeil returns the days from now until t, rounding any partial day
// up. Returns 0 when t is not in the future.
func DaysUntilCeil(now, t time.Time) int {
	remaining := t.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining.Hours() / 24)
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// FormatDate renders a date as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

// FormatRelative returns a human-readable relative description of t against
// the current time.
func FormatRelative(t time.Time) string {
	d := time.Until(t)
	if d < 0 {
		return formatPast(-d)
	}
	return formatFuture(d)
}

func formatPast(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}

func formatFuture(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "in under a minute"
	case d < time.Hour:
		return fmt.Sprintf("in %d minutes", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("in %d hours", int(d.Hours()))
	default:
		return fmt.Sprintf("in %d days", int(d.Hours()/24)+1)
	}
}
