package reports

import (
	"context"
	"errors"

	"github.com/worklog-hq/worklog/internal/platform/httpx"
)

// CachedSummaries serves summaries through the redis cache, computing
// directly when the cache is unavailable. Shared by the HTTP handler and
// the warmup job.
type CachedSummaries struct {
	service *Service
	cache   *Cache
}

// NewCachedSummaries wraps a Service with a Cache. cache may be nil.
func NewCachedSummaries(service *Service, cache *Cache) *CachedSummaries {
	return &CachedSummaries{service: service, cache: cache}
}

// Summary returns the summary for the range, reading through the cache.
func (c *CachedSummaries) Summary(ctx context.Context, userID, dateFrom, dateTo string) (SummaryResult, error) {
	if c.cache == nil {
		return c.service.Summary(ctx, userID, dateFrom, dateTo)
	}

	key, err := c.cache.BuildKey(ctx, "reports", "summary", userID, dateFrom, dateTo)
	if err != nil {
		// Redis unavailable; serve uncached.
		return c.service.Summary(ctx, userID, dateFrom, dateTo)
	}

	var out SummaryResult
	err = c.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return c.service.Summary(ctx, userID, dateFrom, dateTo)
	})
	if err != nil {
		if errors.Is(err, httpx.ErrBadRequest) {
			return SummaryResult{}, err
		}
		// Cache plumbing failed after validation; fall back to a direct read.
		return c.service.Summary(ctx, userID, dateFrom, dateTo)
	}
	return out, nil
}
