package reports

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/worklog-hq/worklog/internal/platform/httpx"
	"github.com/worklog-hq/worklog/internal/shared"
)

// Handler wires HTTP endpoints for reporting.
type Handler struct {
	logger    *slog.Logger
	summaries *CachedSummaries
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, summaries *CachedSummaries) *Handler {
	return &Handler{logger: logger, summaries: summaries}
}

// MountRoutes registers reporting routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.summary)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	dateFrom := r.URL.Query().Get("date_from")
	dateTo := r.URL.Query().Get("date_to")

	result, err := h.summaries.Summary(r.Context(), shared.UserIDFromContext(r.Context()), dateFrom, dateTo)
	if err != nil {
		h.logger.Warn("summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
