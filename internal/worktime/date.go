package worktime

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date evaluated in the reference timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string. Only the canonical zero-padded
// form is accepted, so equal dates always share one spelling.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, location)
	if err != nil || t.Format(dateLayout) != s {
		return Date{}, fmt.Errorf("worktime: invalid date %q", s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// Today returns the calendar date of the given instant in the reference
// timezone.
func Today(now time.Time) Date {
	t := now.In(location)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.startOfDay().Format(dateLayout)
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	if d.Year != other.Year {
		return d.Year > other.Year
	}
	if d.Month != other.Month {
		return d.Month > other.Month
	}
	return d.Day > other.Day
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) startOfDay() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, location)
}

// DayWindow converts an inclusive calendar date range into an absolute
// instant window: 00:00:00 of from through 23:59:59 of to, both in the
// reference timezone. An inverted range yields an inverted window, which
// selects nothing.
func DayWindow(from, to Date) (time.Time, time.Time) {
	start := from.startOfDay()
	end := time.Date(to.Year, to.Month, to.Day, 23, 59, 59, 0, location)
	return start, end
}
