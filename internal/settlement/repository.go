package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence for settlements and
// read-only aggregation over the source tables owned by the sales-entry,
// expense, payroll, and refund collaborators.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations available inside a generation transaction.
type TxRepository interface {
	AggregateRevenue(ctx context.Context, month shared.MonthKey, dealerCode string) (RevenueSummary, error)
	AggregateExpenses(ctx context.Context, month shared.MonthKey, dealerCode string) (ExpenseSummary, error)
	AggregatePayroll(ctx context.Context, month shared.MonthKey, dealerCode string) (decimal.Decimal, error)
	AggregateRefunds(ctx context.Context, month shared.MonthKey, dealerCode string) (decimal.Decimal, error)
	GetForMonthForUpdate(ctx context.Context, month shared.MonthKey, dealerCode string) (*Settlement, error)
	PriorNetProfit(ctx context.Context, month shared.MonthKey, dealerCode string) (*decimal.Decimal, error)
	Upsert(ctx context.Context, s Settlement) (Settlement, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps fn in a repeatable-read transaction. Any error from fn rolls
// the whole transaction back, leaving prior persisted state intact.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const settlementColumns = `id, year_month, dealer_code, status,
total_sales_amount, total_sales_count, total_vat_amount, average_margin_rate,
total_daily_expenses, total_fixed_expenses, total_payroll_amount, total_refund_amount, total_expense_amount,
gross_profit, net_profit, profit_rate, prev_month_comparison, growth_rate,
calculated_at, confirmed_at, confirmed_by, notes, created_at, updated_at`

func scanSettlement(row pgx.Row) (Settlement, error) {
	var s Settlement
	err := row.Scan(
		&s.ID, &s.YearMonth, &s.DealerCode, &s.Status,
		&s.TotalSalesAmount, &s.TotalSalesCount, &s.TotalVATAmount, &s.AverageMarginRate,
		&s.TotalDailyExpenses, &s.TotalFixedExpenses, &s.TotalPayrollAmount, &s.TotalRefundAmount, &s.TotalExpenseAmount,
		&s.GrossProfit, &s.NetProfit, &s.ProfitRate, &s.PrevMonthComparison, &s.GrowthRate,
		&s.CalculatedAt, &s.ConfirmedAt, &s.ConfirmedBy, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// GetByID fetches a settlement by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (Settlement, error) {
	s, err := scanSettlement(r.pool.QueryRow(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Settlement{}, ErrNotFound
	}
	return s, err
}

// GetForMonth fetches a settlement by its natural key.
func (r *Repository) GetForMonth(ctx context.Context, month shared.MonthKey, dealerCode string) (Settlement, error) {
	s, err := scanSettlement(r.pool.QueryRow(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE year_month = $1 AND dealer_code = $2`,
		month.String(), dealerCode))
	if errors.Is(err, pgx.ErrNoRows) {
		return Settlement{}, ErrNotFound
	}
	return s, err
}

// ListForMonth returns settlements for a month ordered by dealer code.
func (r *Repository) ListForMonth(ctx context.Context, month shared.MonthKey, limit, offset int) ([]Settlement, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM settlements WHERE year_month = $1`, month.String()).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE year_month = $1 ORDER BY dealer_code LIMIT $2 OFFSET $3`,
		month.String(), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var settlements []Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, 0, err
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return settlements, total, nil
}

// ConfirmByID performs the draft guard and the write as a single conditional
// update so concurrent confirms cannot both pass the status check.
func (r *Repository) ConfirmByID(ctx context.Context, id, actorID int64, at time.Time) (Settlement, error) {
	s, err := scanSettlement(r.pool.QueryRow(ctx,
		`UPDATE settlements SET status = $2, confirmed_at = $3, confirmed_by = $4, updated_at = $3
		 WHERE id = $1 AND status = $5
		 RETURNING `+settlementColumns,
		id, StatusConfirmed, at, actorID, StatusDraft))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return Settlement{}, getErr
		}
		return Settlement{}, ErrNotDraft
	}
	return s, err
}

// CloseByID transitions a confirmed settlement to its terminal state.
func (r *Repository) CloseByID(ctx context.Context, id int64, at time.Time) (Settlement, error) {
	s, err := scanSettlement(r.pool.QueryRow(ctx,
		`UPDATE settlements SET status = $2, updated_at = $3
		 WHERE id = $1 AND status = $4
		 RETURNING `+settlementColumns,
		id, StatusClosed, at, StatusConfirmed))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return Settlement{}, getErr
		}
		return Settlement{}, ErrNotConfirmed
	}
	return s, err
}

// --- Transactional operations ---

// AggregateRevenue sums the dealer's sales rows whose sale_date falls inside
// the calendar month. Empty months aggregate to zeros, never an error.
func (t *txRepo) AggregateRevenue(ctx context.Context, month shared.MonthKey, dealerCode string) (RevenueSummary, error) {
	start, end, err := month.Bounds()
	if err != nil {
		return RevenueSummary{}, err
	}
	var summary RevenueSummary
	err = t.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(settlement_amount), 0),
		       COUNT(*),
		       COALESCE(SUM(tax_amount), 0),
		       COALESCE(ROUND(AVG(margin_rate), 2), 0)
		FROM sales
		WHERE dealer_code = $1 AND sale_date >= $2 AND sale_date < $3`,
		dealerCode, start, end,
	).Scan(&summary.TotalSalesAmount, &summary.TotalSalesCount, &summary.TotalVATAmount, &summary.AverageMarginRate)
	return summary, err
}

// AggregateExpenses sums ad-hoc daily expenses by date range and fixed
// expenses by their own year_month tag. The source schema tags fixed
// expenses with the month directly instead of dating each row.
func (t *txRepo) AggregateExpenses(ctx context.Context, month shared.MonthKey, dealerCode string) (ExpenseSummary, error) {
	start, end, err := month.Bounds()
	if err != nil {
		return ExpenseSummary{}, err
	}
	var summary ExpenseSummary
	if err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM daily_expenses
		WHERE dealer_code = $1 AND expense_date >= $2 AND expense_date < $3`,
		dealerCode, start, end,
	).Scan(&summary.DailyExpenses); err != nil {
		return ExpenseSummary{}, err
	}
	err = t.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM fixed_expenses
		WHERE dealer_code = $1 AND year_month = $2`,
		dealerCode, month.String(),
	).Scan(&summary.FixedExpenses)
	return summary, err
}

// AggregatePayroll sums salary totals tagged with the exact month key.
func (t *txRepo) AggregatePayroll(ctx context.Context, month shared.MonthKey, dealerCode string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_salary), 0)
		FROM payrolls
		WHERE dealer_code = $1 AND year_month = $2`,
		dealerCode, month.String(),
	).Scan(&total)
	return total, err
}

// AggregateRefunds sums refunds dated inside the calendar month.
func (t *txRepo) AggregateRefunds(ctx context.Context, month shared.MonthKey, dealerCode string) (decimal.Decimal, error) {
	start, end, err := month.Bounds()
	if err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	err = t.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(refund_amount), 0)
		FROM refunds
		WHERE dealer_code = $1 AND refund_date >= $2 AND refund_date < $3`,
		dealerCode, start, end,
	).Scan(&total)
	return total, err
}

// GetForMonthForUpdate locks the existing settlement row for the month, or
// returns nil when none exists yet.
func (t *txRepo) GetForMonthForUpdate(ctx context.Context, month shared.MonthKey, dealerCode string) (*Settlement, error) {
	s, err := scanSettlement(t.tx.QueryRow(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE year_month = $1 AND dealer_code = $2 FOR UPDATE`,
		month.String(), dealerCode))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// PriorNetProfit returns the net profit persisted for the month immediately
// before the given one, or nil when no prior settlement exists.
func (t *txRepo) PriorNetProfit(ctx context.Context, month shared.MonthKey, dealerCode string) (*decimal.Decimal, error) {
	prev, err := month.Prev()
	if err != nil {
		return nil, err
	}
	var net decimal.Decimal
	err = t.tx.QueryRow(ctx,
		`SELECT net_profit FROM settlements WHERE year_month = $1 AND dealer_code = $2`,
		prev.String(), dealerCode,
	).Scan(&net)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &net, nil
}

// Upsert writes the full recomputed field set for the dealer month, creating
// a DRAFT row on first generation. Closed rows are never touched: the status
// filter on the conflict branch makes the write a no-op, which the service
// surfaces as ErrClosed before ever reaching this point.
func (t *txRepo) Upsert(ctx context.Context, s Settlement) (Settlement, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO settlements (
			year_month, dealer_code, status,
			total_sales_amount, total_sales_count, total_vat_amount, average_margin_rate,
			total_daily_expenses, total_fixed_expenses, total_payroll_amount, total_refund_amount, total_expense_amount,
			gross_profit, net_profit, profit_rate, prev_month_comparison, growth_rate,
			calculated_at, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $20)
		ON CONFLICT (year_month, dealer_code) DO UPDATE SET
			total_sales_amount = EXCLUDED.total_sales_amount,
			total_sales_count = EXCLUDED.total_sales_count,
			total_vat_amount = EXCLUDED.total_vat_amount,
			average_margin_rate = EXCLUDED.average_margin_rate,
			total_daily_expenses = EXCLUDED.total_daily_expenses,
			total_fixed_expenses = EXCLUDED.total_fixed_expenses,
			total_payroll_amount = EXCLUDED.total_payroll_amount,
			total_refund_amount = EXCLUDED.total_refund_amount,
			total_expense_amount = EXCLUDED.total_expense_amount,
			gross_profit = EXCLUDED.gross_profit,
			net_profit = EXCLUDED.net_profit,
			profit_rate = EXCLUDED.profit_rate,
			prev_month_comparison = EXCLUDED.prev_month_comparison,
			growth_rate = EXCLUDED.growth_rate,
			calculated_at = EXCLUDED.calculated_at,
			updated_at = EXCLUDED.updated_at
		WHERE settlements.status <> 'CLOSED'
		RETURNING `+settlementColumns,
		s.YearMonth.String(), s.DealerCode, StatusDraft,
		s.TotalSalesAmount, s.TotalSalesCount, s.TotalVATAmount, s.AverageMarginRate,
		s.TotalDailyExpenses, s.TotalFixedExpenses, s.TotalPayrollAmount, s.TotalRefundAmount, s.TotalExpenseAmount,
		s.GrossProfit, s.NetProfit, s.ProfitRate, s.PrevMonthComparison, s.GrowthRate,
		s.CalculatedAt, s.Notes, s.UpdatedAt,
	)
	saved, err := scanSettlement(row)
	if err != nil {
		if isUniqueViolation(err) {
			// Concurrent first generation for the same key; the other
			// transaction's committed row wins.
			return Settlement{}, ErrConcurrentGeneration
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return Settlement{}, ErrClosed
		}
		return Settlement{}, err
	}
	return saved, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ErrConcurrentGeneration indicates two transactions raced to create the
// same settlement; callers may retry and will land on the update path.
var ErrConcurrentGeneration = errors.New("settlement: concurrent generation for same dealer month")
