// Package works manages billable engagements and their lifecycle.
package works

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"

	"github.com/worklog-hq/worklog/internal/platform/httpx"
	"github.com/worklog-hq/worklog/internal/worktime"
)

// DefaultCurrency is assumed when a work is created without one.
const DefaultCurrency = "BRL"

var (
	// ErrNotFound is returned when a work cannot be resolved for the caller.
	ErrNotFound = fmt.Errorf("%w: work not found", httpx.ErrNotFound)
	// ErrAlreadyClosed is returned when closing a work twice.
	ErrAlreadyClosed = fmt.Errorf("%w: work already closed", httpx.ErrBadRequest)
)

// Work represents a billable engagement with a rate, an inclusive date
// range, and an independent timer history. Once ClosedAt is set the work is
// terminal: no new timers may start.
type Work struct {
	ID              string
	UserID          string
	Title           string
	SprintName      string
	StartDate       worktime.Date
	EndDate         worktime.Date
	HourlyRateCents int64
	Currency        string
	ClosedAt        *time.Time
	ClosedReason    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive reports whether new timers may start: the work is not closed and
// today has not passed its end date.
func (w Work) IsActive(today worktime.Date) bool {
	return w.ClosedAt == nil && !today.After(w.EndDate)
}

// CreateWorkInput carries validated parameters for a new work.
type CreateWorkInput struct {
	UserID          string
	Title           string
	SprintName      string
	StartDate       worktime.Date
	EndDate         worktime.Date
	HourlyRateCents int64
	Currency        string
}

// Validate ensures the input is coherent and normalises the currency code.
func (in *CreateWorkInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title required", httpx.ErrBadRequest)
	}
	if strings.TrimSpace(in.SprintName) == "" {
		return fmt.Errorf("%w: sprint_name required", httpx.ErrBadRequest)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date required", httpx.ErrBadRequest)
	}
	if in.StartDate.After(in.EndDate) {
		return fmt.Errorf("%w: start_date cannot be after end_date", httpx.ErrBadRequest)
	}
	if in.HourlyRateCents < 0 {
		return fmt.Errorf("%w: hourly_rate_cents cannot be negative", httpx.ErrBadRequest)
	}
	if in.Currency == "" {
		in.Currency = DefaultCurrency
		return nil
	}
	unit, err := currency.ParseISO(in.Currency)
	if err != nil {
		return fmt.Errorf("%w: invalid currency code %q", httpx.ErrBadRequest, in.Currency)
	}
	in.Currency = unit.String()
	return nil
}
