package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the read side of the reporting aggregator.
type Repository interface {
	// ListClosedEntries selects entries owned by the user that are closed,
	// not soft-deleted, and started within [start, end].
	ListClosedEntries(ctx context.Context, userID string, start, end time.Time) ([]EntryRow, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListClosedEntries joins entries with their works, ordered by started_at
// so grouping order is deterministic.
func (r *PGRepository) ListClosedEntries(ctx context.Context, userID string, start, end time.Time) ([]EntryRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT e.work_id, e.started_at, e.ended_at, w.title, w.sprint_name, w.hourly_rate_cents, w.currency
FROM time_entries e
JOIN works w ON w.id = e.work_id
WHERE w.user_id = $1
  AND e.deleted_at IS NULL
  AND e.ended_at IS NOT NULL
  AND e.started_at >= $2
  AND e.started_at <= $3
ORDER BY e.started_at`, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntryRow
	for rows.Next() {
		var row EntryRow
		if err := rows.Scan(&row.WorkID, &row.StartedAt, &row.EndedAt, &row.Title, &row.SprintName, &row.HourlyRateCents, &row.Currency); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
