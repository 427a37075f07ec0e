package timer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/worklog-hq/worklog/internal/shared"
)

func newTestRouter(svc *Service, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithUserID(req.Context(), userID)))
		})
	})
	r.Route("/works", NewHandler(nil, svc).MountRoutes)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandlerStartStopRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, _, _ := newFixture(t, now)
	router := newTestRouter(svc, "user-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/works/work-1/timer/start", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, StatusStarted, body["status"])
	require.NotEmpty(t, body["entry_id"])
	require.Equal(t, "2025-03-10T14:00:00Z", body["started_at"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/works/work-1/timer/start", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, StatusAlreadyRunning, decodeBody(t, rec)["status"])

	svc.WithNow(fixedClock(now.Add(time.Hour)))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/works/work-1/timer/stop", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	require.Equal(t, StatusStopped, body["status"])
	require.Equal(t, "2025-03-10T15:00:00Z", body["ended_at"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/works/work-1/timer/stop", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	require.Equal(t, StatusNotRunning, body["status"])
	require.NotContains(t, body, "entry_id")
}

func TestHandlerState(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, repo, _ := newFixture(t, now)
	router := newTestRouter(svc, "user-1")

	ended := now.Add(-time.Hour)
	require.NoError(t, repo.Insert(context.Background(), TimeEntry{ID: "e1", WorkID: "work-1", StartedAt: ended.Add(-90 * time.Minute), EndedAt: &ended}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/works/work-1/timer/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, false, body["running"])
	require.Equal(t, float64(5400), body["total_closed_seconds"])
	require.Equal(t, false, body["is_finished"])
	require.NotContains(t, body, "blocked_reason")
}

func TestHandlerListAndDeleteEntries(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, repo, _ := newFixture(t, now)
	router := newTestRouter(svc, "user-1")

	ended := now.Add(-time.Hour)
	require.NoError(t, repo.Insert(context.Background(), TimeEntry{ID: "e1", WorkID: "work-1", StartedAt: ended.Add(-30 * time.Minute), EndedAt: &ended}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/works/work-1/entries?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeBody(t, rec)["items"].([]any)
	require.Len(t, items, 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/works/work-1/entries/e1", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/works/work-1/entries", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeBody(t, rec)["items"])

	// Second delete reads as absent.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/works/work-1/entries/e1", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerDeleteRunningEntry(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, _, _ := newFixture(t, now)
	router := newTestRouter(svc, "user-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/works/work-1/timer/start", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	entryID := decodeBody(t, rec)["entry_id"].(string)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/works/work-1/entries/"+entryID, nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUnknownWork(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	svc, _, _ := newFixture(t, now)
	router := newTestRouter(svc, "user-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/works/missing/timer/start", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
