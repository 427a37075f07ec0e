// Package timer owns the per-work timer state machine: at most one open
// time entry per work at any moment.
package timer

import (
	"errors"
	"fmt"
	"time"

	"github.com/worklog-hq/worklog/internal/platform/httpx"
	"github.com/worklog-hq/worklog/internal/worktime"
)

var (
	// ErrWorkFinished is returned when starting a timer on a closed or
	// expired work.
	ErrWorkFinished = fmt.Errorf("%w: work already finished", httpx.ErrBadRequest)
	// ErrEntryNotFound is returned when an entry is missing, already
	// deleted, or belongs to a different work.
	ErrEntryNotFound = fmt.Errorf("%w: time entry not found", httpx.ErrNotFound)
	// ErrEntryRunning is returned when deleting an entry that is still open.
	ErrEntryRunning = fmt.Errorf("%w: cannot delete a running entry", httpx.ErrBadRequest)
	// ErrOpenEntryExists signals the storage layer rejected a second open
	// entry for the same work. Recovered inside Start, never surfaced.
	ErrOpenEntryExists = errors.New("timer: open entry already exists")
)

// TimeEntry is one contiguous tracked interval. A nil EndedAt means the
// timer is running; a non-nil DeletedAt hides the entry from listing and
// aggregation.
type TimeEntry struct {
	ID        string
	WorkID    string
	StartedAt time.Time
	EndedAt   *time.Time
	Note      *string
	DeletedAt *time.Time
}

// Open reports whether the entry represents a running timer.
func (e TimeEntry) Open() bool {
	return e.EndedAt == nil && e.DeletedAt == nil
}

// Status values for start/stop results.
const (
	StatusStarted        = "started"
	StatusAlreadyRunning = "already_running"
	StatusStopped        = "stopped"
	StatusNotRunning     = "not_running"
)

// Blocking reasons reported by State.
const (
	BlockedClosed  = "CLOSED"
	BlockedExpired = "EXPIRED"
)

// StartResult reports the outcome of a start call.
type StartResult struct {
	Status string
	Entry  TimeEntry
}

// StopResult reports the outcome of a stop call. Entry is nil when no timer
// was running.
type StopResult struct {
	Status string
	Entry  *TimeEntry
}

// State is a read-only snapshot of a work's timer.
type State struct {
	Running            bool
	StartedAt          *time.Time
	TotalClosedSeconds int64
	IsFinished         bool
	BlockedReason      string
	EndDate            worktime.Date
	ClosedAt           *time.Time
}

// EntryView annotates an entry with its computed duration, zero while the
// entry is still open.
type EntryView struct {
	TimeEntry
	DurationSeconds int64
}
