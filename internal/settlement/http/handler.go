package settlementhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/settlement"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type settlementService interface {
	Generate(ctx context.Context, in settlement.GenerateInput) (settlement.Settlement, error)
	GenerateAll(ctx context.Context, month shared.MonthKey) ([]settlement.BatchOutcome, error)
	Confirm(ctx context.Context, id, actorID int64) (settlement.Settlement, error)
	Close(ctx context.Context, id int64) (settlement.Settlement, error)
	Get(ctx context.Context, id int64) (settlement.Settlement, error)
	ListForMonth(ctx context.Context, month shared.MonthKey, page, perPage int) ([]settlement.Settlement, shared.Pagination, error)
}

// Handler wires the settlement JSON endpoints. Role filtering happens in the
// calling layer; the handler only carries explicit parameters downstream.
type Handler struct {
	logger    *slog.Logger
	service   settlementService
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service settlementService) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers settlement routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/settlements", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/generate", h.generate)
		r.Post("/generate-all", h.generateAll)
		r.Get("/{id}", h.show)
		r.Post("/{id}/confirm", h.confirm)
		r.Post("/{id}/close", h.close)
	})
}

type generateRequest struct {
	YearMonth  string `json:"year_month" validate:"required,len=7"`
	DealerCode string `json:"dealer_code" validate:"required,max=32"`
}

type generateAllRequest struct {
	YearMonth string `json:"year_month" validate:"required,len=7"`
}

type confirmRequest struct {
	ActorID int64 `json:"actor_id" validate:"required,gt=0"`
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	month, err := shared.ParseMonthKey(req.YearMonth)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	settled, err := h.service.Generate(r.Context(), settlement.GenerateInput{
		YearMonth:  month,
		DealerCode: req.DealerCode,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(settled))
}

func (h *Handler) generateAll(w http.ResponseWriter, r *http.Request) {
	var req generateAllRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	month, err := shared.ParseMonthKey(req.YearMonth)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	outcomes, err := h.service.GenerateAll(r.Context(), month)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"year_month": month.String(),
		"results":    outcomes,
	})
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req confirmRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	settled, err := h.service.Confirm(r.Context(), id, req.ActorID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(settled))
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	settled, err := h.service.Close(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(settled))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	settled, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(settled))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	month, err := shared.ParseMonthKey(r.URL.Query().Get("month"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	settlements, pagination, err := h.service.ListForMonth(r.Context(), month, page, perPage)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	views := make([]settlementView, 0, len(settlements))
	for _, s := range settlements {
		views = append(views, toView(s))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"settlements": views,
		"pagination": map[string]int{
			"page":        pagination.Page,
			"per_page":    pagination.PerPage,
			"total":       pagination.Total,
			"total_pages": pagination.TotalPages,
		},
	})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid settlement id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, settlement.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, settlement.ErrNotDraft),
		errors.Is(err, settlement.ErrNotConfirmed),
		errors.Is(err, settlement.ErrClosed):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, settlement.ErrInvalidMonth),
		errors.Is(err, settlement.ErrDealerRequired),
		errors.Is(err, settlement.ErrActorRequired):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("settlement request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
