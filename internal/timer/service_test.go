package timer

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/worklog-hq/worklog/internal/works"
	"github.com/worklog-hq/worklog/internal/worktime"
)

type memoryRepo struct {
	entries map[string]*TimeEntry

	// findOpenNilOnce makes the next FindOpen report no open entry,
	// simulating a reader that raced an insert.
	findOpenNilOnce bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{entries: make(map[string]*TimeEntry)}
}

func (r *memoryRepo) FindOpen(ctx context.Context, workID string) (*TimeEntry, error) {
	if r.findOpenNilOnce {
		r.findOpenNilOnce = false
		return nil, nil
	}
	for _, e := range r.entries {
		if e.WorkID == workID && e.Open() {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) Insert(ctx context.Context, e TimeEntry) error {
	for _, existing := range r.entries {
		if existing.WorkID == e.WorkID && existing.Open() {
			return ErrOpenEntryExists
		}
	}
	cp := e
	r.entries[e.ID] = &cp
	return nil
}

func (r *memoryRepo) SetEnded(ctx context.Context, entryID string, endedAt time.Time) error {
	e, ok := r.entries[entryID]
	if !ok {
		return errors.New("entry missing")
	}
	e.EndedAt = &endedAt
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, workID, entryID string) (*TimeEntry, error) {
	e, ok := r.entries[entryID]
	if !ok || e.WorkID != workID || e.DeletedAt != nil {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *memoryRepo) SetDeleted(ctx context.Context, entryID string, deletedAt time.Time) error {
	e, ok := r.entries[entryID]
	if !ok {
		return errors.New("entry missing")
	}
	e.DeletedAt = &deletedAt
	return nil
}

func (r *memoryRepo) List(ctx context.Context, workID string, limit int) ([]TimeEntry, error) {
	var out []TimeEntry
	for _, e := range r.entries {
		if e.WorkID == workID && e.DeletedAt == nil {
			out = append(out, *e)
		}
	}
	// Newest first, matching the SQL ORDER BY started_at DESC.
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) ListClosed(ctx context.Context, workID string) ([]TimeEntry, error) {
	var out []TimeEntry
	for _, e := range r.entries {
		if e.WorkID == workID && e.DeletedAt == nil && e.EndedAt != nil {
			out = append(out, *e)
		}
	}
	return out, nil
}

type memoryWorks struct {
	works map[string]works.Work
}

func (f *memoryWorks) Get(ctx context.Context, workID, userID string) (works.Work, error) {
	w, ok := f.works[workID]
	if !ok || w.UserID != userID {
		return works.Work{}, works.ErrNotFound
	}
	return w, nil
}

type countingCache struct {
	bumps int
}

func (c *countingCache) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func mustDate(t *testing.T, s string) worktime.Date {
	t.Helper()
	d, err := worktime.ParseDate(s)
	require.NoError(t, err)
	return d
}

func activeWork(t *testing.T, now time.Time) works.Work {
	t.Helper()
	start := worktime.Today(now.AddDate(0, 0, -7))
	end := worktime.Today(now.AddDate(0, 0, 7))
	return works.Work{
		ID:              "work-1",
		UserID:          "user-1",
		Title:           "Checkout revamp",
		SprintName:      "Sprint 12",
		StartDate:       start,
		EndDate:         end,
		HourlyRateCents: 6000,
		Currency:        "BRL",
	}
}

func newFixture(t *testing.T, now time.Time) (*Service, *memoryRepo, *countingCache) {
	t.Helper()
	repo := newMemoryRepo()
	w := activeWork(t, now)
	finder := &memoryWorks{works: map[string]works.Work{w.ID: w}}
	cache := &countingCache{}
	svc := NewService(repo, finder, cache)
	svc.WithNow(fixedClock(now))
	return svc, repo, cache
}

func TestStartThenStartIsIdempotent(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, _, _ := newFixture(t, now)
	ctx := context.Background()

	first, err := svc.Start(ctx, "work-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, StatusStarted, first.Status)
	require.NotEmpty(t, first.Entry.ID)

	second, err := svc.Start(ctx, "work-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, StatusAlreadyRunning, second.Status)
	require.Equal(t, first.Entry.ID, second.Entry.ID)
}

func TestStartRecoversFromInsertConflict(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, repo, _ := newFixture(t, now)
	ctx := context.Background()

	// Simulate a concurrent winner that landed between FindOpen and Insert:
	// the first FindOpen sees nothing, the insert hits the unique index,
	// and the re-read finds the entry that won.
	require.NoError(t, repo.Insert(ctx, TimeEntry{ID: "winner", WorkID: "work-1", StartedAt: now}))
	repo.findOpenNilOnce = true

	res, err := svc.Start(ctx, "work-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, StatusAlreadyRunning, res.Status)
	require.Equal(t, "winner", res.Entry.ID)
}

func TestStartOnClosedWork(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	repo := newMemoryRepo()
	w := activeWork(t, now)
	closedAt := now.Add(-time.Hour)
	w.ClosedAt = &closedAt
	finder := &memoryWorks{works: map[string]works.Work{w.ID: w}}
	svc := NewService(repo, finder, nil)
	svc.WithNow(fixedClock(now))

	_, err := svc.Start(context.Background(), "work-1", "user-1")
	require.ErrorIs(t, err, ErrWorkFinished)
}

func TestStartOnExpiredWork(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	repo := newMemoryRepo()
	w := activeWork(t, now)
	w.EndDate = mustDate(t, "2025-03-01")
	finder := &memoryWorks{works: map[string]works.Work{w.ID: w}}
	svc := NewService(repo, finder, nil)
	svc.WithNow(fixedClock(now))

	_, err := svc.Start(context.Background(), "work-1", "user-1")
	require.ErrorIs(t, err, ErrWorkFinished)
}

func TestStartUnknownWork(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, _, _ := newFixture(t, now)

	_, err := svc.Start(context.Background(), "missing", "user-1")
	require.ErrorIs(t, err, works.ErrNotFound)
}

func TestStopClosesRunningEntry(t *testing.T) {
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, _, cache := newFixture(t, start)
	ctx := context.Background()

	res, err := svc.Start(ctx, "work-1", "user-1")
	require.NoError(t, err)

	svc.WithNow(fixedClock(start.Add(90 * time.Minute)))
	stop, err := svc.Stop(ctx, "work-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, StatusStopped, stop.Status)
	require.NotNil(t, stop.Entry)
	require.Equal(t, res.Entry.ID, stop.Entry.ID)
	require.NotNil(t, stop.Entry.EndedAt)
	require.Equal(t, 1, cache.bumps)
}

func TestStopWithoutRunningEntry(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, _, cache := newFixture(t, now)

	res, err := svc.Stop(context.Background(), "work-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, StatusNotRunning, res.Status)
	require.Nil(t, res.Entry)
	require.Equal(t, 0, cache.bumps)
}

func TestStateAggregatesClosedSeconds(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, repo, _ := newFixture(t, now)
	ctx := context.Background()

	end1 := now.Add(-2 * time.Hour)
	start1 := end1.Add(-30 * time.Minute)
	end2 := now.Add(-time.Hour)
	start2 := end2.Add(-time.Hour)
	require.NoError(t, repo.Insert(ctx, TimeEntry{ID: "e1", WorkID: "work-1", StartedAt: start1, EndedAt: &end1}))
	require.NoError(t, repo.Insert(ctx, TimeEntry{ID: "e2", WorkID: "work-1", StartedAt: start2, EndedAt: &end2}))

	st, err := svc.State(ctx, "work-1", "user-1")
	require.NoError(t, err)
	require.False(t, st.Running)
	require.Nil(t, st.StartedAt)
	require.Equal(t, int64(5400), st.TotalClosedSeconds)
	require.False(t, st.IsFinished)
	require.Empty(t, st.BlockedReason)
}

func TestStateWhileRunning(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, _, _ := newFixture(t, now)
	ctx := context.Background()

	res, err := svc.Start(ctx, "work-1", "user-1")
	require.NoError(t, err)

	st, err := svc.State(ctx, "work-1", "user-1")
	require.NoError(t, err)
	require.True(t, st.Running)
	require.NotNil(t, st.StartedAt)
	require.Equal(t, res.Entry.StartedAt, *st.StartedAt)
}

func TestStateBlockedReasonPrefersClosed(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	repo := newMemoryRepo()
	w := activeWork(t, now)
	w.EndDate = mustDate(t, "2025-03-01")
	closedAt := now.Add(-time.Hour)
	w.ClosedAt = &closedAt
	finder := &memoryWorks{works: map[string]works.Work{w.ID: w}}
	svc := NewService(repo, finder, nil)
	svc.WithNow(fixedClock(now))

	st, err := svc.State(context.Background(), "work-1", "user-1")
	require.NoError(t, err)
	require.True(t, st.IsFinished)
	require.Equal(t, BlockedClosed, st.BlockedReason)
}

func TestStateBlockedExpired(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	repo := newMemoryRepo()
	w := activeWork(t, now)
	w.EndDate = mustDate(t, "2025-03-01")
	finder := &memoryWorks{works: map[string]works.Work{w.ID: w}}
	svc := NewService(repo, finder, nil)
	svc.WithNow(fixedClock(now))

	st, err := svc.State(context.Background(), "work-1", "user-1")
	require.NoError(t, err)
	require.True(t, st.IsFinished)
	require.Equal(t, BlockedExpired, st.BlockedReason)
}

func TestListEntriesComputesDurations(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, repo, _ := newFixture(t, now)
	ctx := context.Background()

	ended := now.Add(-time.Hour)
	started := ended.Add(-90 * time.Minute)
	require.NoError(t, repo.Insert(ctx, TimeEntry{ID: "closed", WorkID: "work-1", StartedAt: started, EndedAt: &ended}))
	require.NoError(t, repo.Insert(ctx, TimeEntry{ID: "open", WorkID: "work-1", StartedAt: now}))

	views, err := svc.ListEntries(ctx, "work-1", "user-1", 0)
	require.NoError(t, err)
	require.Len(t, views, 2)

	require.Equal(t, "open", views[0].ID)
	require.Equal(t, "closed", views[1].ID)
	require.Equal(t, int64(0), views[0].DurationSeconds)
	require.Equal(t, int64(5400), views[1].DurationSeconds)
}

func TestSoftDelete(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, repo, cache := newFixture(t, now)
	ctx := context.Background()

	ended := now.Add(-time.Hour)
	require.NoError(t, repo.Insert(ctx, TimeEntry{ID: "closed", WorkID: "work-1", StartedAt: ended.Add(-time.Hour), EndedAt: &ended}))

	require.NoError(t, svc.SoftDelete(ctx, "work-1", "closed", "user-1"))
	require.Equal(t, 1, cache.bumps)

	// Deleted entries read as absent.
	err := svc.SoftDelete(ctx, "work-1", "closed", "user-1")
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestSoftDeleteRunningEntry(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, _, cache := newFixture(t, now)
	ctx := context.Background()

	res, err := svc.Start(ctx, "work-1", "user-1")
	require.NoError(t, err)

	err = svc.SoftDelete(ctx, "work-1", res.Entry.ID, "user-1")
	require.ErrorIs(t, err, ErrEntryRunning)
	require.Equal(t, 0, cache.bumps)
}

func TestSoftDeleteUnknownEntry(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, _, _ := newFixture(t, now)

	err := svc.SoftDelete(context.Background(), "work-1", "missing", "user-1")
	require.ErrorIs(t, err, ErrEntryNotFound)
}
