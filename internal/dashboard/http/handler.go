package dashboardhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/dashboard"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type dashboardService interface {
	GetMonthlyDashboard(ctx context.Context, month shared.MonthKey) (dashboard.MonthlyDashboard, error)
	GetYearlyTrend(ctx context.Context, filter dashboard.TrendFilter) ([]dashboard.TrendPoint, error)
}

// Handler serves the read-only dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service dashboardService
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service dashboardService) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/monthly", h.monthly)
		r.Get("/trend", h.trend)
	})
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	month, err := shared.ParseMonthKey(r.URL.Query().Get("month"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	board, err := h.service.GetMonthlyDashboard(r.Context(), month)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1000 || year > 9999 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "year must be a four-digit number")
		return
	}
	filter := dashboard.TrendFilter{Year: year}
	if dealer := r.URL.Query().Get("dealer"); dealer != "" {
		filter.DealerCode = &dealer
	}
	points, err := h.service.GetYearlyTrend(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"year":   year,
		"points": points,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shared.ErrInvalidMonthKey) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.logger.Error("dashboard request failed",
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
