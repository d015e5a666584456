package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// ParseCalendarDate reads the YYYY-MM-DD prefix of s as a calendar date.
// Anything after the day (a time of day, a zone offset) is ignored, so
// "2025-06-10T23:30:00-07:00" is June 10 whatever the server's zone is.
// The result is midnight UTC on that date.
func ParseCalendarDate(s string) (time.Time, error) {
	datePart := strings.TrimSpace(s)
	if i := strings.IndexAny(datePart, "T "); i >= 0 {
		datePart = datePart[:i]
	}

	parts := strings.Split(datePart, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBillingDate, s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBillingDate, s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBillingDate, s)
	}
	dayOfMonth, err := strconv.Atoi(parts[2])
	if err != nil || dayOfMonth < 1 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBillingDate, s)
	}

	date := time.Date(year, time.Month(month), dayOfMonth, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes Feb 30 into March; reject that instead.
	if date.Day() != dayOfMonth {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBillingDate, s)
	}
	return date, nil
}

// CalendarDay strips the time of day from t, keeping the calendar date t has
// in its own location.
func CalendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the whole number of days from today's calendar date to
// target's, rounded up. Negative when target is in the past.
func DaysUntil(target, today time.Time) int {
	diff := CalendarDay(target).Sub(CalendarDay(today))
	return int(math.Ceil(float64(diff) / float64(day)))
}

// FormatCalendarDate renders t's calendar date as YYYY-MM-DD.
func FormatCalendarDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
