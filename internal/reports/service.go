package reports

import (
	"context"
	"sort"

	"github.com/worklog-hq/worklog/internal/worktime"
)

// Service computes earnings summaries.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Summary aggregates the user's closed, non-deleted entries whose start
// falls inside the inclusive [dateFrom, dateTo] calendar range. An inverted
// range is tolerated and yields an empty result, not an error. Seconds are
// summed per work first; earnings are computed once on the summed seconds
// so per-entry rounding cannot drift. The result is sorted by earnings
// descending with grouping order preserved on ties.
func (s *Service) Summary(ctx context.Context, userID, dateFrom, dateTo string) (SummaryResult, error) {
	from, err := worktime.ParseDate(dateFrom)
	if err != nil {
		return SummaryResult{}, ErrInvalidDate
	}
	to, err := worktime.ParseDate(dateTo)
	if err != nil {
		return SummaryResult{}, ErrInvalidDate
	}

	start, end := worktime.DayWindow(from, to)
	rows, err := s.repo.ListClosedEntries(ctx, userID, start, end)
	if err != nil {
		return SummaryResult{}, err
	}

	type group struct {
		summary WorkSummary
		rate    int64
	}
	groups := make(map[string]*group)
	var order []string
	for _, row := range rows {
		g, ok := groups[row.WorkID]
		if !ok {
			g = &group{
				summary: WorkSummary{
					WorkID:     row.WorkID,
					Title:      row.Title,
					SprintName: row.SprintName,
					Currency:   row.Currency,
				},
				rate: row.HourlyRateCents,
			}
			groups[row.WorkID] = g
			order = append(order, row.WorkID)
		}
		g.summary.TotalSeconds += worktime.ElapsedSeconds(row.StartedAt, row.EndedAt)
	}

	result := SummaryResult{
		From:     dateFrom,
		To:       dateTo,
		Currency: DefaultCurrency,
		ByWork:   make([]WorkSummary, 0, len(order)),
	}
	for _, id := range order {
		g := groups[id]
		g.summary.TotalEarnedCents = worktime.EarnedCents(g.rate, g.summary.TotalSeconds)
		result.ByWork = append(result.ByWork, g.summary)
		result.TotalSeconds += g.summary.TotalSeconds
		result.TotalEarnedCents += g.summary.TotalEarnedCents
	}

	sort.SliceStable(result.ByWork, func(i, j int) bool {
		return result.ByWork[i].TotalEarnedCents > result.ByWork[j].TotalEarnedCents
	})
	return result, nil
}
