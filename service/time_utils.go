package service

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

// UTCNow is the production clock
func UTCNow() time.Time {
	return time.Now().UTC()
}

// StartOfDayUTC truncates t to midnight UTC
func StartOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WholeDaysBetween returns the number of complete days from start to end, floored at zero
func WholeDaysBetween(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / day)
}

// CeilDaysUntil returns the days left until t, rounded up, never negative
func CeilDaysUntil(now, t time.Time) int {
	remaining := t.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(float64(remaining) / float64(day)))
}

// CeilHoursUntil returns the hours left until t, rounded up, never negative
func CeilHoursUntil(now, t time.Time) int {
	remaining := t.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(float64(remaining) / float64(time.Hour)))
}
