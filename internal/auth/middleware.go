package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/worklog-hq/worklog/internal/platform/httpx"
	"github.com/worklog-hq/worklog/internal/shared"
)

// Middleware authenticates bearer tokens on protected routes.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireUser rejects requests without a valid bearer token and stores the
// resolved user id in the request context.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			httpx.RespondError(w, ErrInvalidToken)
			return
		}
		userID, err := m.Service.ResolveToken(r.Context(), token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("resolve token", slog.String("path", r.URL.Path), slog.Any("error", err))
			}
			httpx.RespondError(w, ErrInvalidToken)
			return
		}
		ctx := shared.ContextWithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the token from the Authorization header, empty when
// absent or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
