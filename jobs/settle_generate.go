package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/settlement"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// BatchSettler runs the monthly settlement across all active dealers.
type BatchSettler interface {
	GenerateAll(ctx context.Context, month shared.MonthKey) ([]settlement.BatchOutcome, error)
}

// SettleGenerateAllHandler processes TaskSettleGenerateAll tasks.
type SettleGenerateAllHandler struct {
	settler BatchSettler
	logger  *slog.Logger
	now     func() time.Time
}

// NewSettleGenerateAllHandler constructs the handler.
func NewSettleGenerateAllHandler(settler BatchSettler, logger *slog.Logger) *SettleGenerateAllHandler {
	return &SettleGenerateAllHandler{settler: settler, logger: logger, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (h *SettleGenerateAllHandler) WithNow(now func() time.Time) {
	if now != nil {
		h.now = now
	}
}

// ProcessTask runs the batch and logs the per-dealer outcome. A malformed
// payload or month is not retryable; transient generation errors are left to
// the per-dealer outcome entries rather than failing the task.
func (h *SettleGenerateAllHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload SettleGenerateAllPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Cron registrations carry an empty month and settle the previous
	// calendar month at execution time. Subtracting on the month key
	// instead of the timestamp stays correct on the 29th-31st, where
	// AddDate day normalization would land in the current month.
	if payload.YearMonth == "" {
		prev, err := shared.MonthKeyFor(h.now()).Prev()
		if err != nil {
			return asynq.SkipRetry
		}
		payload.YearMonth = prev.String()
	}
	month, err := shared.ParseMonthKey(payload.YearMonth)
	if err != nil {
		h.logger.Error("batch settlement rejected",
			slog.String("batch_id", payload.BatchID),
			slog.String("year_month", payload.YearMonth),
			slog.Any("error", err))
		return asynq.SkipRetry
	}

	outcomes, err := h.settler.GenerateAll(ctx, month)
	if err != nil {
		return err
	}

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Status == settlement.OutcomeError {
			failed++
			h.logger.Warn("dealer settlement failed in batch",
				slog.String("batch_id", payload.BatchID),
				slog.String("dealer_code", outcome.DealerCode),
				slog.String("error", outcome.Error))
		}
	}
	h.logger.Info("batch settlement finished",
		slog.String("batch_id", payload.BatchID),
		slog.String("year_month", month.String()),
		slog.Int("dealers", len(outcomes)),
		slog.Int("failed", failed))
	return nil
}
