package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/worklog-hq/worklog/internal/jobs"
	"github.com/worklog-hq/worklog/internal/reports"
	"github.com/worklog-hq/worklog/internal/worktime"
)

const warmupConcurrency = 4

// RecentUserLister returns users that authenticated since a given instant.
type RecentUserLister interface {
	ListRecentUserIDs(ctx context.Context, since time.Time) ([]string, error)
}

// SummaryWarmupJob precomputes current-month earnings summaries for recently
// active users so their first dashboard request hits a warm cache.
type SummaryWarmupJob struct {
	Summaries *reports.CachedSummaries
	Users     RecentUserLister
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewSummaryWarmupJob wires dependencies for the warmup handler.
func NewSummaryWarmupJob(summaries *reports.CachedSummaries, users RecentUserLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *SummaryWarmupJob {
	return &SummaryWarmupJob{
		Summaries: summaries,
		Users:     users,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes summary warmup tasks.
func (j *SummaryWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Summaries == nil || j.Users == nil {
		return errors.New("summary warmup: handler not configured")
	}
	var payload SummaryWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	activeWithin := 24 * time.Hour
	if payload.ActiveWithin != "" {
		parsed, err := time.ParseDuration(payload.ActiveWithin)
		if err != nil {
			return asynq.SkipRetry
		}
		activeWithin = parsed
	}

	tracker := j.metrics().Track(TaskTypeSummaryWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.now()
	userIDs, err := j.Users.ListRecentUserIDs(ctx, now.Add(-activeWithin))
	if err != nil {
		resultErr = err
		j.logger().Error("list active users", slog.Any("error", err))
		return resultErr
	}
	if len(userIDs) == 0 {
		j.logger().Info("no active users to warm")
		return resultErr
	}

	local := now.In(worktime.Location())
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, worktime.Location())
	dateFrom := worktime.Today(monthStart).String()
	dateTo := worktime.Today(local).String()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmupConcurrency)
	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			warmCtx, cancel := context.WithTimeout(gctx, 20*time.Second)
			defer cancel()
			_, err := j.Summaries.Summary(warmCtx, userID, dateFrom, dateTo)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		resultErr = err
		j.logger().Error("warm summaries", slog.Any("error", err))
		return resultErr
	}

	j.logger().Info("completed summary warmup", slog.Int("users", len(userIDs)), slog.Duration("duration", time.Since(now)))
	return resultErr
}

func (j *SummaryWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeSummaryWarmup))
	}
	return slog.Default().With(slog.String("job", TaskTypeSummaryWarmup))
}

func (j *SummaryWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SummaryWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
