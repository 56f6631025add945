package dashboard

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RankingSize caps the dealer leaderboard.
const RankingSize = 10

// MonthlySummary aggregates all dealers' settlements for one month.
type MonthlySummary struct {
	YearMonth          string          `json:"year_month"`
	DealerCount        int64           `json:"dealer_count"`
	TotalSalesAmount   decimal.Decimal `json:"total_sales_amount"`
	TotalExpenseAmount decimal.Decimal `json:"total_expense_amount"`
	TotalNetProfit     decimal.Decimal `json:"total_net_profit"`
	AverageProfitRate  decimal.Decimal `json:"average_profit_rate"`
}

// DealerRank is one leaderboard entry, ordered by net profit descending.
type DealerRank struct {
	Rank       int             `json:"rank"`
	DealerCode string          `json:"dealer_code"`
	NetProfit  decimal.Decimal `json:"net_profit"`
	ProfitRate decimal.Decimal `json:"profit_rate"`
	GrowthRate decimal.Decimal `json:"growth_rate"`
}

// ExpenseBreakdown splits the month's expenses across the four categories.
type ExpenseBreakdown struct {
	DailyExpenses decimal.Decimal `json:"daily_expenses"`
	FixedExpenses decimal.Decimal `json:"fixed_expenses"`
	Payroll       decimal.Decimal `json:"payroll"`
	Refunds       decimal.Decimal `json:"refunds"`
	Total         decimal.Decimal `json:"total"`
}

// MonthlyDashboard bundles the month view consumed by the admin screens.
type MonthlyDashboard struct {
	Summary          MonthlySummary   `json:"summary"`
	DealerRanking    []DealerRank     `json:"dealer_ranking"`
	ExpenseBreakdown ExpenseBreakdown `json:"expense_breakdown"`
}

// TrendPoint is one month of the yearly trend series.
type TrendPoint struct {
	Month       string          `json:"month"`
	Revenue     decimal.Decimal `json:"revenue"`
	Expenses    decimal.Decimal `json:"expenses"`
	NetProfit   decimal.Decimal `json:"profit"`
	DealerCount int64           `json:"dealer_count"`
}

// TrendFilter scopes the yearly trend query.
type TrendFilter struct {
	Year       int
	DealerCode *string
}

// Months expands the filter year into its twelve month keys.
func (f TrendFilter) Months() ([]shared.MonthKey, error) {
	return shared.YearMonths(f.Year)
}
