package timer

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/worklog-hq/worklog/internal/platform/httpx"
	"github.com/worklog-hq/worklog/internal/shared"
)

// Handler wires HTTP endpoints for the timer engine.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers timer routes under the works subtree.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{workID}/timer/start", h.start)
	r.Post("/{workID}/timer/stop", h.stop)
	r.Get("/{workID}/timer/state", h.state)
	r.Get("/{workID}/entries", h.listEntries)
	r.Delete("/{workID}/entries/{entryID}", h.softDelete)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Start(r.Context(), chi.URLParam(r, "workID"), shared.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":     res.Status,
		"entry_id":   res.Entry.ID,
		"started_at": res.Entry.StartedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Stop(r.Context(), chi.URLParam(r, "workID"), shared.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	body := map[string]any{"status": res.Status}
	if res.Entry != nil {
		body["entry_id"] = res.Entry.ID
		body["ended_at"] = res.Entry.EndedAt.UTC().Format(time.RFC3339)
	}
	httpx.JSON(w, http.StatusOK, body)
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.State(r.Context(), chi.URLParam(r, "workID"), shared.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	body := map[string]any{
		"running":              st.Running,
		"total_closed_seconds": st.TotalClosedSeconds,
		"is_finished":          st.IsFinished,
		"end_date":             st.EndDate.String(),
	}
	if st.StartedAt != nil {
		body["started_at"] = st.StartedAt.UTC().Format(time.RFC3339)
	}
	if st.BlockedReason != "" {
		body["blocked_reason"] = st.BlockedReason
	}
	if st.ClosedAt != nil {
		body["closed_at"] = st.ClosedAt.UTC().Format(time.RFC3339)
	}
	httpx.JSON(w, http.StatusOK, body)
}

type entryItem struct {
	ID              string  `json:"id"`
	StartedAt       string  `json:"started_at"`
	EndedAt         *string `json:"ended_at,omitempty"`
	Note            *string `json:"note,omitempty"`
	DurationSeconds int64   `json:"duration_seconds"`
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.ListEntries(r.Context(), chi.URLParam(r, "workID"), shared.UserIDFromContext(r.Context()), limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items := make([]entryItem, 0, len(entries))
	for _, e := range entries {
		item := entryItem{
			ID:              e.ID,
			StartedAt:       e.StartedAt.UTC().Format(time.RFC3339),
			Note:            e.Note,
			DurationSeconds: e.DurationSeconds,
		}
		if e.EndedAt != nil {
			s := e.EndedAt.UTC().Format(time.RFC3339)
			item.EndedAt = &s
		}
		items = append(items, item)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	err := h.service.SoftDelete(r.Context(), chi.URLParam(r, "workID"), chi.URLParam(r, "entryID"), shared.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
