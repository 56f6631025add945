package settlement

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// SettlementRepository abstracts persistence for the orchestrator.
type SettlementRepository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetByID(ctx context.Context, id int64) (Settlement, error)
	GetForMonth(ctx context.Context, month shared.MonthKey, dealerCode string) (Settlement, error)
	ListForMonth(ctx context.Context, month shared.MonthKey, limit, offset int) ([]Settlement, int, error)
	ConfirmByID(ctx context.Context, id, actorID int64, at time.Time) (Settlement, error)
	CloseByID(ctx context.Context, id int64, at time.Time) (Settlement, error)
}

// DealerDirectory lists the active dealer codes eligible for batch generation.
// The dealer profile table is owned by the directory collaborator.
type DealerDirectory interface {
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// Invalidator is notified after settlement mutations so downstream read
// caches can drop stale aggregates.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service orchestrates settlement generation and lifecycle transitions.
type Service struct {
	repo        SettlementRepository
	dealers     DealerDirectory
	invalidator Invalidator
	logger      *slog.Logger
	now         func() time.Time
}

// NewService constructs a Service instance.
func NewService(repo SettlementRepository, dealers DealerDirectory, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		dealers: dealers,
		logger:  logger,
		now:     time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithInvalidator attaches a cache invalidation hook.
func (s *Service) WithInvalidator(inv Invalidator) {
	s.invalidator = inv
}

// Generate recomputes the settlement for one dealer month from source data
// and persists the full field set atomically. Re-running with unchanged
// source data overwrites the row with identical values. Closed settlements
// are immutable and fail with ErrClosed.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (Settlement, error) {
	if err := in.Validate(); err != nil {
		return Settlement{}, err
	}
	now := s.now()
	var result Settlement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForMonthForUpdate(ctx, in.YearMonth, in.DealerCode)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status == StatusClosed {
			return ErrClosed
		}

		revenue, err := tx.AggregateRevenue(ctx, in.YearMonth, in.DealerCode)
		if err != nil {
			return err
		}
		expenses, err := tx.AggregateExpenses(ctx, in.YearMonth, in.DealerCode)
		if err != nil {
			return err
		}
		payroll, err := tx.AggregatePayroll(ctx, in.YearMonth, in.DealerCode)
		if err != nil {
			return err
		}
		refunds, err := tx.AggregateRefunds(ctx, in.YearMonth, in.DealerCode)
		if err != nil {
			return err
		}

		expenseTotal := ExpenseTotal(expenses.DailyExpenses, expenses.FixedExpenses, payroll, refunds)
		profit := ComputeProfitability(revenue.TotalSalesAmount, revenue.TotalVATAmount, expenseTotal)

		prior, err := tx.PriorNetProfit(ctx, in.YearMonth, in.DealerCode)
		if err != nil {
			return err
		}
		growth := ComputeGrowth(profit.NetProfit, prior)

		draft := Settlement{
			YearMonth:  in.YearMonth,
			DealerCode: in.DealerCode,

			TotalSalesAmount:  revenue.TotalSalesAmount,
			TotalSalesCount:   revenue.TotalSalesCount,
			TotalVATAmount:    revenue.TotalVATAmount,
			AverageMarginRate: revenue.AverageMarginRate,

			TotalDailyExpenses: expenses.DailyExpenses,
			TotalFixedExpenses: expenses.FixedExpenses,
			TotalPayrollAmount: payroll,
			TotalRefundAmount:  refunds,
			TotalExpenseAmount: expenseTotal,

			GrossProfit: profit.GrossProfit,
			NetProfit:   profit.NetProfit,
			ProfitRate:  profit.ProfitRate,

			PrevMonthComparison: growth.PrevMonthComparison,
			GrowthRate:          growth.GrowthRate,

			CalculatedAt: &now,
			UpdatedAt:    now,
		}
		if existing != nil {
			draft.Notes = existing.Notes
		}

		result, err = tx.Upsert(ctx, draft)
		return err
	})
	if err != nil {
		return Settlement{}, err
	}
	s.invalidate(ctx)
	return result, nil
}

// GenerateAll settles every active dealer for the month sequentially. One
// dealer's failure is recorded in its outcome entry and does not abort or
// roll back the rest of the batch.
func (s *Service) GenerateAll(ctx context.Context, month shared.MonthKey) ([]BatchOutcome, error) {
	if !month.Valid() {
		return nil, ErrInvalidMonth
	}
	codes, err := s.dealers.ListActiveCodes(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(codes)

	outcomes := make([]BatchOutcome, 0, len(codes))
	for _, code := range codes {
		settled, err := s.Generate(ctx, GenerateInput{YearMonth: month, DealerCode: code})
		if err != nil {
			s.logger.Warn("settlement generation failed",
				slog.String("dealer_code", code),
				slog.String("month", month.String()),
				slog.Any("error", err))
			outcomes = append(outcomes, BatchOutcome{
				DealerCode: code,
				Status:     OutcomeError,
				Error:      err.Error(),
			})
			continue
		}
		net := settled.NetProfit
		outcomes = append(outcomes, BatchOutcome{
			DealerCode: code,
			Status:     OutcomeSuccess,
			NetProfit:  &net,
		})
	}
	return outcomes, nil
}

// Confirm transitions a DRAFT settlement to CONFIRMED, recording the actor.
func (s *Service) Confirm(ctx context.Context, id, actorID int64) (Settlement, error) {
	if actorID == 0 {
		return Settlement{}, ErrActorRequired
	}
	settled, err := s.repo.ConfirmByID(ctx, id, actorID, s.now())
	if err != nil {
		return Settlement{}, err
	}
	s.invalidate(ctx)
	return settled, nil
}

// Close transitions a CONFIRMED settlement to its terminal CLOSED state.
func (s *Service) Close(ctx context.Context, id int64) (Settlement, error) {
	settled, err := s.repo.CloseByID(ctx, id, s.now())
	if err != nil {
		return Settlement{}, err
	}
	s.invalidate(ctx)
	return settled, nil
}

// Get returns a settlement by id.
func (s *Service) Get(ctx context.Context, id int64) (Settlement, error) {
	return s.repo.GetByID(ctx, id)
}

// GetForMonth returns the settlement for a dealer month.
func (s *Service) GetForMonth(ctx context.Context, month shared.MonthKey, dealerCode string) (Settlement, error) {
	if !month.Valid() {
		return Settlement{}, ErrInvalidMonth
	}
	return s.repo.GetForMonth(ctx, month, dealerCode)
}

// ListForMonth returns settlements for a month with pagination metadata.
func (s *Service) ListForMonth(ctx context.Context, month shared.MonthKey, page, perPage int) ([]Settlement, shared.Pagination, error) {
	if !month.Valid() {
		return nil, shared.Pagination{}, ErrInvalidMonth
	}
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	settlements, total, err := s.repo.ListForMonth(ctx, month, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return settlements, shared.NewPagination(page, perPage, total), nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Bump(ctx); err != nil {
		s.logger.Warn("dashboard cache bump", slog.Any("error", err))
	}
}
