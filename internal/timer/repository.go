package timer

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for time entries.
type Repository interface {
	// FindOpen returns the open entry for the work, nil when none exists.
	FindOpen(ctx context.Context, workID string) (*TimeEntry, error)
	// Insert creates a new entry. Returns ErrOpenEntryExists when the
	// one-open-entry constraint rejects the row.
	Insert(ctx context.Context, e TimeEntry) error
	// SetEnded closes the entry at the given instant.
	SetEnded(ctx context.Context, entryID string, endedAt time.Time) error
	// Get returns a non-deleted entry scoped to the work, nil when absent.
	Get(ctx context.Context, workID, entryID string) (*TimeEntry, error)
	// SetDeleted soft-deletes the entry.
	SetDeleted(ctx context.Context, entryID string, deletedAt time.Time) error
	// List returns non-deleted entries ordered by started_at descending.
	List(ctx context.Context, workID string, limit int) ([]TimeEntry, error)
	// ListClosed returns all closed, non-deleted entries for the work.
	ListClosed(ctx context.Context, workID string) ([]TimeEntry, error)
}

// openEntryConstraint is the partial unique index enforcing at most one
// open entry per work (see db/migrations).
const openEntryConstraint = "time_entries_one_open_per_work"

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const entryColumns = `id, work_id, started_at, ended_at, note, deleted_at`

// FindOpen returns the running entry for a work, if any.
func (r *PGRepository) FindOpen(ctx context.Context, workID string) (*TimeEntry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM time_entries WHERE work_id = $1 AND ended_at IS NULL AND deleted_at IS NULL`, workID)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// Insert creates a new entry, translating a unique violation on the partial
// index into ErrOpenEntryExists.
func (r *PGRepository) Insert(ctx context.Context, e TimeEntry) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `INSERT INTO time_entries (id, work_id, started_at, ended_at, note, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		e.ID, e.WorkID, e.StartedAt, e.EndedAt, e.Note, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == openEntryConstraint {
			return ErrOpenEntryExists
		}
		return err
	}
	return nil
}

// SetEnded stamps ended_at on the entry.
func (r *PGRepository) SetEnded(ctx context.Context, entryID string, endedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE time_entries SET ended_at = $1, updated_at = $1 WHERE id = $2`, endedAt, entryID)
	return err
}

// Get fetches a non-deleted entry scoped to its work.
func (r *PGRepository) Get(ctx context.Context, workID, entryID string) (*TimeEntry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM time_entries WHERE id = $1 AND work_id = $2 AND deleted_at IS NULL`, entryID, workID)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// SetDeleted stamps deleted_at on the entry.
func (r *PGRepository) SetDeleted(ctx context.Context, entryID string, deletedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE time_entries SET deleted_at = $1, updated_at = $1 WHERE id = $2`, deletedAt, entryID)
	return err
}

// List returns non-deleted entries, newest first.
func (r *PGRepository) List(ctx context.Context, workID string, limit int) ([]TimeEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM time_entries WHERE work_id = $1 AND deleted_at IS NULL ORDER BY started_at DESC LIMIT $2`, workID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ListClosed returns every closed, non-deleted entry for the work.
func (r *PGRepository) ListClosed(ctx context.Context, workID string) ([]TimeEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM time_entries WHERE work_id = $1 AND ended_at IS NOT NULL AND deleted_at IS NULL`, workID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]TimeEntry, error) {
	var out []TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (TimeEntry, error) {
	var e TimeEntry
	if err := row.Scan(&e.ID, &e.WorkID, &e.StartedAt, &e.EndedAt, &e.Note, &e.DeletedAt); err != nil {
		return TimeEntry{}, err
	}
	return e, nil
}

var _ Repository = (*PGRepository)(nil)
