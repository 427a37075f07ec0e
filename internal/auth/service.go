package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/worklog-hq/worklog/internal/shared"
)

// Service wraps account and token business rules.
type Service struct {
	repo   Repository
	tokens *TokenStore
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, tokens *TokenStore) *Service {
	return &Service{repo: repo, tokens: tokens, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates a new account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login validates credentials and issues a bearer token, recording a
// session audit row.
func (s *Service) Login(ctx context.Context, email, password, ip, ua string) (string, time.Time, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", time.Time{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, shared.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	session := Session{
		ID:        token,
		UserID:    user.ID,
		CreatedAt: s.now().UTC(),
		ExpiresAt: expiresAt,
		IP:        ip,
		UserAgent: ua,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Logout revokes the token and removes its audit row.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		return err
	}
	return s.repo.DeleteSession(ctx, token)
}

// ResolveToken maps a bearer token to the owning user's id, verifying the
// account still exists.
func (s *Service) ResolveToken(ctx context.Context, token string) (string, error) {
	userID, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return "", err
	}
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	return userID, nil
}
