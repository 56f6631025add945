package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/meridian-erp/meridian-erp/internal/settlement"
	"github.com/meridian-erp/meridian-erp/jobs"
)

// SettleOpsCLI exposes helpers for managing batch settlement jobs.
type SettleOpsCLI struct {
	jobs *JobsCLI
}

// NewSettleOpsCLI constructs the helper wired to the provided Redis endpoint.
func NewSettleOpsCLI(redisAddr string) (*SettleOpsCLI, error) {
	base, err := NewJobsCLI(redisAddr)
	if err != nil {
		return nil, err
	}
	return &SettleOpsCLI{jobs: base}, nil
}

// Close releases the underlying Asynq resources.
func (c *SettleOpsCLI) Close() error {
	if c == nil || c.jobs == nil {
		return nil
	}
	return c.jobs.Close()
}

// TriggerBatch enqueues a batch settlement job for the given YYYY-MM month.
func (c *SettleOpsCLI) TriggerBatch(ctx context.Context, yearMonth string) (*asynq.TaskInfo, error) {
	if c == nil || c.jobs == nil {
		return nil, errors.New("settle cli: client not configured")
	}
	task, err := jobs.NewSettleGenerateAllTask(yearMonth)
	if err != nil {
		return nil, err
	}
	return c.jobs.Enqueue(ctx, task, asynq.MaxRetry(3))
}

// InspectQueue proxies queue statistics for observability.
func (c *SettleOpsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.jobs == nil {
		return QueueStats{}, errors.New("settle cli: inspector not configured")
	}
	return c.jobs.InspectQueue(ctx)
}

// PrintOutcomes writes a per-dealer outcome table with grouped currency
// amounts, the format operators paste into the monthly closing thread.
func PrintOutcomes(w io.Writer, yearMonth string, outcomes []settlement.BatchOutcome) {
	printer := message.NewPrinter(language.English)
	fmt.Fprintf(w, "settlement batch %s: %d dealers\n", yearMonth, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Status == settlement.OutcomeError {
			fmt.Fprintf(w, "  %-12s ERROR  %s\n", outcome.DealerCode, outcome.Error)
			continue
		}
		net := "0"
		if outcome.NetProfit != nil {
			net = printer.Sprintf("%d", outcome.NetProfit.IntPart())
		}
		fmt.Fprintf(w, "  %-12s ok     net_profit=%s\n", outcome.DealerCode, net)
	}
}
