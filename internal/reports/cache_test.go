package reports

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/worklog-hq/worklog/internal/worktime"
)

type countingRepo struct {
	memoryRepo
	calls int
}

func (r *countingRepo) ListClosedEntries(ctx context.Context, userID string, start, end time.Time) ([]EntryRow, error) {
	r.calls++
	return r.memoryRepo.ListClosedEntries(ctx, userID, start, end)
}

func newCachedFixture(t *testing.T, repo Repository) (*CachedSummaries, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	return NewCachedSummaries(NewService(repo), cache), cache
}

func TestCachedSummaryServesSecondReadFromCache(t *testing.T) {
	started := time.Date(2025, 3, 3, 12, 0, 0, 0, worktime.Location())
	repo := &countingRepo{memoryRepo: memoryRepo{rows: []EntryRow{
		entry("work-a", "Checkout revamp", 6000, started, 90*time.Minute),
	}}}
	summaries, _ := newCachedFixture(t, repo)
	ctx := context.Background()

	first, err := summaries.Summary(ctx, "user-1", "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.Equal(t, int64(9000), first.TotalEarnedCents)
	require.Equal(t, 1, repo.calls)

	second, err := summaries.Summary(ctx, "user-1", "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.calls)
}

func TestBumpInvalidatesCachedSummaries(t *testing.T) {
	started := time.Date(2025, 3, 3, 12, 0, 0, 0, worktime.Location())
	repo := &countingRepo{memoryRepo: memoryRepo{rows: []EntryRow{
		entry("work-a", "Checkout revamp", 6000, started, time.Hour),
	}}}
	summaries, cache := newCachedFixture(t, repo)
	ctx := context.Background()

	_, err := summaries.Summary(ctx, "user-1", "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)

	// More time lands and the cache version is bumped; the next read must
	// recompute.
	repo.rows = append(repo.rows, entry("work-a", "Checkout revamp", 6000, started.Add(24*time.Hour), time.Hour))
	require.NoError(t, cache.Bump(ctx))

	res, err := summaries.Summary(ctx, "user-1", "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
	require.Equal(t, int64(7200), res.TotalSeconds)
}

func TestCachedSummaryRejectsInvalidDates(t *testing.T) {
	summaries, _ := newCachedFixture(t, &memoryRepo{})

	_, err := summaries.Summary(context.Background(), "user-1", "bogus", "2025-03-31")
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestCachedSummaryWithoutCache(t *testing.T) {
	started := time.Date(2025, 3, 3, 12, 0, 0, 0, worktime.Location())
	repo := &countingRepo{memoryRepo: memoryRepo{rows: []EntryRow{
		entry("work-a", "Checkout revamp", 6000, started, time.Hour),
	}}}
	summaries := NewCachedSummaries(NewService(repo), nil)

	res, err := summaries.Summary(context.Background(), "user-1", "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.Equal(t, int64(3600), res.TotalSeconds)
	require.Equal(t, 1, repo.calls)
}
