package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository reduces already-persisted settlement rows. It never touches the
// source tables; everything here is strictly downstream of generation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// MonthlySummary sums settlements across dealers for the month.
func (r *Repository) MonthlySummary(ctx context.Context, month shared.MonthKey) (MonthlySummary, error) {
	summary := MonthlySummary{YearMonth: month.String()}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_sales_amount), 0),
		       COALESCE(SUM(total_expense_amount), 0),
		       COALESCE(SUM(net_profit), 0),
		       COALESCE(ROUND(AVG(profit_rate), 2), 0)
		FROM settlements
		WHERE year_month = $1`,
		month.String(),
	).Scan(&summary.DealerCount, &summary.TotalSalesAmount, &summary.TotalExpenseAmount,
		&summary.TotalNetProfit, &summary.AverageProfitRate)
	return summary, err
}

// TopDealers ranks dealers by net profit descending.
func (r *Repository) TopDealers(ctx context.Context, month shared.MonthKey, limit int) ([]DealerRank, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT dealer_code, net_profit, profit_rate, growth_rate
		FROM settlements
		WHERE year_month = $1
		ORDER BY net_profit DESC, dealer_code
		LIMIT $2`,
		month.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ranking []DealerRank
	for rows.Next() {
		var rank DealerRank
		if err := rows.Scan(&rank.DealerCode, &rank.NetProfit, &rank.ProfitRate, &rank.GrowthRate); err != nil {
			return nil, err
		}
		rank.Rank = len(ranking) + 1
		ranking = append(ranking, rank)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ranking, nil
}

// ExpenseBreakdown totals the month's expenses per category.
func (r *Repository) ExpenseBreakdown(ctx context.Context, month shared.MonthKey) (ExpenseBreakdown, error) {
	var breakdown ExpenseBreakdown
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_daily_expenses), 0),
		       COALESCE(SUM(total_fixed_expenses), 0),
		       COALESCE(SUM(total_payroll_amount), 0),
		       COALESCE(SUM(total_refund_amount), 0),
		       COALESCE(SUM(total_expense_amount), 0)
		FROM settlements
		WHERE year_month = $1`,
		month.String(),
	).Scan(&breakdown.DailyExpenses, &breakdown.FixedExpenses, &breakdown.Payroll,
		&breakdown.Refunds, &breakdown.Total)
	return breakdown, err
}

// YearlyTrend groups settlements by month for the year, optionally scoped to
// one dealer. Months without settlements are absent from the result; the
// service zero-fills them.
func (r *Repository) YearlyTrend(ctx context.Context, year int, dealerCode *string) (map[string]TrendPoint, error) {
	query := `
		SELECT year_month,
		       COALESCE(SUM(total_sales_amount), 0),
		       COALESCE(SUM(total_expense_amount), 0),
		       COALESCE(SUM(net_profit), 0),
		       COUNT(*)
		FROM settlements
		WHERE year_month LIKE $1`
	args := []any{fmt.Sprintf("%04d-%%", year)}
	if dealerCode != nil {
		query += ` AND dealer_code = $2`
		args = append(args, *dealerCode)
	}
	query += ` GROUP BY year_month ORDER BY year_month`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	points := make(map[string]TrendPoint)
	for rows.Next() {
		var point TrendPoint
		if err := rows.Scan(&point.Month, &point.Revenue, &point.Expenses, &point.NetProfit, &point.DealerCount); err != nil {
			return nil, err
		}
		points[point.Month] = point
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}
