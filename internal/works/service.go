package works

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SummaryCache invalidates cached report summaries after mutations that
// change accounted time.
type SummaryCache interface {
	Bump(ctx context.Context) error
}

// Service wraps work lifecycle business rules.
type Service struct {
	repo  Repository
	cache SummaryCache
	now   func() time.Time
}

// NewService constructs a Service. cache may be nil.
func NewService(repo Repository, cache SummaryCache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create validates the input and inserts a new work.
func (s *Service) Create(ctx context.Context, in CreateWorkInput) (Work, error) {
	if err := in.Validate(); err != nil {
		return Work{}, err
	}
	now := s.now().UTC()
	w := Work{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Title:           in.Title,
		SprintName:      in.SprintName,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		HourlyRateCents: in.HourlyRateCents,
		Currency:        in.Currency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return Work{}, err
	}
	return w, nil
}

// Get resolves a work owned by the user.
func (s *Service) Get(ctx context.Context, workID, userID string) (Work, error) {
	return s.repo.Get(ctx, workID, userID)
}

// List returns the user's works ordered by start_date descending.
func (s *Service) List(ctx context.Context, userID string) ([]Work, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Close finalises the work. Any open entry is stopped as part of closure,
// so closing changes accounted time and invalidates cached summaries.
// Closing an already-closed work fails with ErrAlreadyClosed.
func (s *Service) Close(ctx context.Context, workID, userID string, reason *string) (Work, error) {
	w, err := s.repo.Close(ctx, workID, userID, s.now().UTC(), reason)
	if err != nil {
		return Work{}, err
	}
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
	return w, nil
}
