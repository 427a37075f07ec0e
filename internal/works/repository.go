package works

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worklog-hq/worklog/internal/platform/db"
	"github.com/worklog-hq/worklog/internal/worktime"
)

// Repository defines persistence operations for works.
type Repository interface {
	Create(ctx context.Context, w Work) error
	Get(ctx context.Context, workID, userID string) (Work, error)
	ListByUser(ctx context.Context, userID string) ([]Work, error)
	// Close marks the work closed and stops any open entry in the same
	// transaction. Returns ErrNotFound when the work is unresolvable for the
	// user and ErrAlreadyClosed when closed_at is already set.
	Close(ctx context.Context, workID, userID string, closedAt time.Time, reason *string) (Work, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const workColumns = `id, user_id, title, sprint_name, start_date, end_date, hourly_rate_cents, currency, closed_at, closed_reason, created_at, updated_at`

// Create inserts a new work row.
func (r *PGRepository) Create(ctx context.Context, w Work) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO works (id, user_id, title, sprint_name, start_date, end_date, hourly_rate_cents, currency, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		w.ID, w.UserID, w.Title, w.SprintName, w.StartDate.String(), w.EndDate.String(),
		w.HourlyRateCents, w.Currency, w.CreatedAt, w.UpdatedAt)
	return err
}

// Get fetches a work owned by the given user.
func (r *PGRepository) Get(ctx context.Context, workID, userID string) (Work, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+workColumns+` FROM works WHERE id = $1 AND user_id = $2`, workID, userID)
	w, err := scanWork(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Work{}, ErrNotFound
		}
		return Work{}, err
	}
	return w, nil
}

// ListByUser returns the user's works ordered by start_date descending.
func (r *PGRepository) ListByUser(ctx context.Context, userID string) ([]Work, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+workColumns+` FROM works WHERE user_id = $1 ORDER BY start_date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Work
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Close locks the work row, rejects double closure, stops any open entry and
// stamps closed_at/closed_reason, all within one transaction.
func (r *PGRepository) Close(ctx context.Context, workID, userID string, closedAt time.Time, reason *string) (Work, error) {
	var w Work
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+workColumns+` FROM works WHERE id = $1 AND user_id = $2 FOR UPDATE`, workID, userID)
		var err error
		w, err = scanWork(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if w.ClosedAt != nil {
			return ErrAlreadyClosed
		}

		// Closure must never leave a dangling open entry.
		if _, err := tx.Exec(ctx, `UPDATE time_entries SET ended_at = $1, updated_at = $1 WHERE work_id = $2 AND ended_at IS NULL AND deleted_at IS NULL`, closedAt, workID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE works SET closed_at = $1, closed_reason = $2, updated_at = $1 WHERE id = $3`, closedAt, reason, workID)
		return err
	})
	if err != nil {
		return Work{}, err
	}

	w.ClosedAt = &closedAt
	w.ClosedReason = reason
	w.UpdatedAt = closedAt
	return w, nil
}

func scanWork(row pgx.Row) (Work, error) {
	var (
		w          Work
		start, end string
	)
	if err := row.Scan(&w.ID, &w.UserID, &w.Title, &w.SprintName, &start, &end,
		&w.HourlyRateCents, &w.Currency, &w.ClosedAt, &w.ClosedReason, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return Work{}, err
	}
	var err error
	if w.StartDate, err = worktime.ParseDate(start); err != nil {
		return Work{}, err
	}
	if w.EndDate, err = worktime.ParseDate(end); err != nil {
		return Work{}, err
	}
	return w, nil
}

var _ Repository = (*PGRepository)(nil)
