// Package reports aggregates closed time entries into per-work and total
// earnings over a date range.
package reports

import (
	"fmt"
	"time"

	"github.com/worklog-hq/worklog/internal/platform/httpx"
)

// DefaultCurrency is reported on the top-level summary. Constituent works
// keep their own currency; mixed-currency totals are summed arithmetically
// regardless, a documented simplification.
const DefaultCurrency = "BRL"

// ErrInvalidDate is returned when a range bound is not a YYYY-MM-DD date.
var ErrInvalidDate = fmt.Errorf("%w: invalid date, expected YYYY-MM-DD", httpx.ErrBadRequest)

// WorkSummary is the per-work aggregation line.
type WorkSummary struct {
	WorkID           string `json:"work_id"`
	Title            string `json:"title"`
	SprintName       string `json:"sprint_name"`
	TotalSeconds     int64  `json:"total_seconds"`
	TotalEarnedCents int64  `json:"total_earned_cents"`
	Currency         string `json:"currency"`
}

// SummaryResult is the aggregated earnings report for a date range.
type SummaryResult struct {
	From             string        `json:"from"`
	To               string        `json:"to"`
	TotalSeconds     int64         `json:"total_seconds"`
	TotalEarnedCents int64         `json:"total_earned_cents"`
	Currency         string        `json:"currency"`
	ByWork           []WorkSummary `json:"by_work"`
}

// EntryRow is a closed entry joined with its work, as selected for
// aggregation.
type EntryRow struct {
	WorkID          string
	StartedAt       time.Time
	EndedAt         time.Time
	Title           string
	SprintName      string
	HourlyRateCents int64
	Currency        string
}
