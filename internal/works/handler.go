package works

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/worklog-hq/worklog/internal/platform/httpx"
	"github.com/worklog-hq/worklog/internal/shared"
	"github.com/worklog-hq/worklog/internal/worktime"
)

// Handler wires HTTP endpoints for work management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers work routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/{workID}/close", h.close)
}

type createWorkRequest struct {
	Title           string `json:"title" validate:"required"`
	SprintName      string `json:"sprint_name" validate:"required"`
	StartDate       string `json:"start_date" validate:"required"`
	EndDate         string `json:"end_date" validate:"required"`
	HourlyRateCents int64  `json:"hourly_rate_cents" validate:"gte=0"`
	Currency        string `json:"currency"`
}

type workItem struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	SprintName      string  `json:"sprint_name"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	HourlyRateCents int64   `json:"hourly_rate_cents"`
	Currency        string  `json:"currency"`
	ClosedAt        *string `json:"closed_at,omitempty"`
	ClosedReason    *string `json:"closed_reason,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createWorkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	start, err := worktime.ParseDate(req.StartDate)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid start_date", httpx.ErrBadRequest))
		return
	}
	end, err := worktime.ParseDate(req.EndDate)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid end_date", httpx.ErrBadRequest))
		return
	}

	work, err := h.service.Create(r.Context(), CreateWorkInput{
		UserID:          shared.UserIDFromContext(r.Context()),
		Title:           req.Title,
		SprintName:      req.SprintName,
		StartDate:       start,
		EndDate:         end,
		HourlyRateCents: req.HourlyRateCents,
		Currency:        req.Currency,
	})
	if err != nil {
		h.logger.Warn("create work", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"id": work.ID})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), shared.UserIDFromContext(r.Context()))
	if err != nil {
		h.logger.Error("list works", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]workItem, 0, len(items))
	for _, it := range items {
		out = append(out, toWorkItem(it))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

type closeWorkRequest struct {
	Reason *string `json:"reason"`
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	var req closeWorkRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
			return
		}
	}

	work, err := h.service.Close(r.Context(), chi.URLParam(r, "workID"), shared.UserIDFromContext(r.Context()), req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id":            work.ID,
		"closed_at":     work.ClosedAt.UTC().Format(time.RFC3339),
		"closed_reason": work.ClosedReason,
	})
}

func toWorkItem(w Work) workItem {
	item := workItem{
		ID:              w.ID,
		Title:           w.Title,
		SprintName:      w.SprintName,
		StartDate:       w.StartDate.String(),
		EndDate:         w.EndDate.String(),
		HourlyRateCents: w.HourlyRateCents,
		Currency:        w.Currency,
		ClosedReason:    w.ClosedReason,
	}
	if w.ClosedAt != nil {
		s := w.ClosedAt.UTC().Format(time.RFC3339)
		item.ClosedAt = &s
	}
	return item
}
