// Package worktime holds the pure time and money arithmetic shared by the
// timer engine and the reporting aggregator.
package worktime

import "time"

// ReferenceTZ is the fixed timezone used to evaluate calendar dates.
const ReferenceTZ = "America/Sao_Paulo"

var location *time.Location

func init() {
	loc, err := time.LoadLocation(ReferenceTZ)
	if err != nil {
		// tz database unavailable, fall back to the system location.
		loc = time.Local
	}
	location = loc
}

// Location returns the reference timezone.
func Location() *time.Location {
	return location
}

// ElapsedSeconds returns the whole seconds between start and end, clamped
// at zero so clock skew can never yield a negative duration.
func ElapsedSeconds(start, end time.Time) int64 {
	secs := int64(end.Sub(start) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// EarnedCents converts worked seconds into cents at the given hourly rate.
// The exact value rate*seconds/3600 is rounded half-up in integer
// arithmetic. Non-positive durations earn nothing.
func EarnedCents(hourlyRateCents, seconds int64) int64 {
	if seconds <= 0 {
		return 0
	}
	return (hourlyRateCents*seconds + 1800) / 3600
}
