package timer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/worklog-hq/worklog/internal/shared"
	"github.com/worklog-hq/worklog/internal/works"
	"github.com/worklog-hq/worklog/internal/worktime"
)

// Listing bounds for ListEntries.
const (
	DefaultListLimit = 200
	MaxListLimit     = 1000
)

// WorkFinder resolves a work owned by a user. Satisfied by works.Repository.
type WorkFinder interface {
	Get(ctx context.Context, workID, userID string) (works.Work, error)
}

// SummaryCache invalidates cached report summaries after mutations that
// change accounted time.
type SummaryCache interface {
	Bump(ctx context.Context) error
}

// Service implements the timer state machine. "Running" is purely data: an
// entry with a null ended_at. The one-open-entry invariant is backstopped
// by the storage layer's partial unique index; a conflicting insert is
// recovered by re-reading the winning open entry.
type Service struct {
	repo  Repository
	works WorkFinder
	cache SummaryCache
	now   func() time.Time
}

// NewService constructs a Service. cache may be nil.
func NewService(repo Repository, finder WorkFinder, cache SummaryCache) *Service {
	return &Service{repo: repo, works: finder, cache: cache, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Start opens a timer on the work. When a timer is already running the call
// is an idempotent no-op returning the existing entry.
func (s *Service) Start(ctx context.Context, workID, userID string) (StartResult, error) {
	w, err := s.works.Get(ctx, workID, userID)
	if err != nil {
		return StartResult{}, err
	}
	now := s.now().UTC()
	if !w.IsActive(worktime.Today(now)) {
		return StartResult{}, ErrWorkFinished
	}

	open, err := s.repo.FindOpen(ctx, workID)
	if err != nil {
		return StartResult{}, err
	}
	if open != nil {
		return StartResult{Status: StatusAlreadyRunning, Entry: *open}, nil
	}

	entry := TimeEntry{ID: uuid.NewString(), WorkID: workID, StartedAt: now}
	if err := s.repo.Insert(ctx, entry); err != nil {
		if errors.Is(err, ErrOpenEntryExists) {
			// Lost a concurrent race; the entry that won is the answer.
			open, ferr := s.repo.FindOpen(ctx, workID)
			if ferr != nil {
				return StartResult{}, ferr
			}
			if open != nil {
				return StartResult{Status: StatusAlreadyRunning, Entry: *open}, nil
			}
			return StartResult{}, fmt.Errorf("timer: open entry vanished after conflict: %w", err)
		}
		return StartResult{}, err
	}
	return StartResult{Status: StatusStarted, Entry: entry}, nil
}

// Stop closes the running timer. With no timer running it reports
// not_running and mutates nothing.
func (s *Service) Stop(ctx context.Context, workID, userID string) (StopResult, error) {
	if _, err := s.works.Get(ctx, workID, userID); err != nil {
		return StopResult{}, err
	}
	open, err := s.repo.FindOpen(ctx, workID)
	if err != nil {
		return StopResult{}, err
	}
	if open == nil {
		return StopResult{Status: StatusNotRunning}, nil
	}

	endedAt := s.now().UTC()
	if err := s.repo.SetEnded(ctx, open.ID, endedAt); err != nil {
		return StopResult{}, err
	}
	open.EndedAt = &endedAt
	s.bump(ctx)
	return StopResult{Status: StatusStopped, Entry: open}, nil
}

// State returns a read-only snapshot of the work's timer.
func (s *Service) State(ctx context.Context, workID, userID string) (State, error) {
	w, err := s.works.Get(ctx, workID, userID)
	if err != nil {
		return State{}, err
	}
	open, err := s.repo.FindOpen(ctx, workID)
	if err != nil {
		return State{}, err
	}
	closed, err := s.repo.ListClosed(ctx, workID)
	if err != nil {
		return State{}, err
	}

	var total int64
	for _, e := range closed {
		total += worktime.ElapsedSeconds(e.StartedAt, *e.EndedAt)
	}

	expired := worktime.Today(s.now()).After(w.EndDate)
	st := State{
		Running:            open != nil,
		TotalClosedSeconds: total,
		IsFinished:         w.ClosedAt != nil || expired,
		EndDate:            w.EndDate,
		ClosedAt:           w.ClosedAt,
	}
	if open != nil {
		st.StartedAt = &open.StartedAt
	}
	switch {
	case w.ClosedAt != nil:
		st.BlockedReason = BlockedClosed
	case expired:
		st.BlockedReason = BlockedExpired
	}
	return st, nil
}

// ListEntries returns the work's non-deleted entries, newest first, each
// annotated with its duration. The limit is clamped to 1..1000.
func (s *Service) ListEntries(ctx context.Context, workID, userID string, limit int) ([]EntryView, error) {
	if _, err := s.works.Get(ctx, workID, userID); err != nil {
		return nil, err
	}
	limit = shared.ClampLimit(limit, DefaultListLimit, MaxListLimit)
	entries, err := s.repo.List(ctx, workID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		view := EntryView{TimeEntry: e}
		if e.EndedAt != nil {
			view.DurationSeconds = worktime.ElapsedSeconds(e.StartedAt, *e.EndedAt)
		}
		out = append(out, view)
	}
	return out, nil
}

// SoftDelete hides a closed entry from listing and aggregation. Running
// entries cannot be deleted; already-deleted entries read as absent.
func (s *Service) SoftDelete(ctx context.Context, workID, entryID, userID string) error {
	if _, err := s.works.Get(ctx, workID, userID); err != nil {
		return err
	}
	entry, err := s.repo.Get(ctx, workID, entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrEntryNotFound
	}
	if entry.EndedAt == nil {
		return ErrEntryRunning
	}
	if err := s.repo.SetDeleted(ctx, entryID, s.now().UTC()); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}
