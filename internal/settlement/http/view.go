package settlementhttp

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/settlement"
)

// settlementView is the wire representation consumed by export and report
// generators: currency amounts as plain numerics, percentages already
// multiplied by 100.
type settlementView struct {
	ID         int64  `json:"id"`
	YearMonth  string `json:"year_month"`
	DealerCode string `json:"dealer_code"`
	Status     string `json:"status"`

	TotalSalesAmount  decimal.Decimal `json:"total_sales_amount"`
	TotalSalesCount   int64           `json:"total_sales_count"`
	TotalVATAmount    decimal.Decimal `json:"total_vat_amount"`
	AverageMarginRate decimal.Decimal `json:"average_margin_rate"`

	TotalDailyExpenses decimal.Decimal `json:"total_daily_expenses"`
	TotalFixedExpenses decimal.Decimal `json:"total_fixed_expenses"`
	TotalPayrollAmount decimal.Decimal `json:"total_payroll_amount"`
	TotalRefundAmount  decimal.Decimal `json:"total_refund_amount"`
	TotalExpenseAmount decimal.Decimal `json:"total_expense_amount"`

	GrossProfit decimal.Decimal `json:"gross_profit"`
	NetProfit   decimal.Decimal `json:"net_profit"`
	ProfitRate  decimal.Decimal `json:"profit_rate"`

	PrevMonthComparison decimal.Decimal `json:"prev_month_comparison"`
	GrowthRate          decimal.Decimal `json:"growth_rate"`

	CalculatedAt *time.Time `json:"calculated_at,omitempty"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	ConfirmedBy  *int64     `json:"confirmed_by,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toView(s settlement.Settlement) settlementView {
	return settlementView{
		ID:         s.ID,
		YearMonth:  s.YearMonth.String(),
		DealerCode: s.DealerCode,
		Status:     string(s.Status),

		TotalSalesAmount:  s.TotalSalesAmount,
		TotalSalesCount:   s.TotalSalesCount,
		TotalVATAmount:    s.TotalVATAmount,
		AverageMarginRate: s.AverageMarginRate,

		TotalDailyExpenses: s.TotalDailyExpenses,
		TotalFixedExpenses: s.TotalFixedExpenses,
		TotalPayrollAmount: s.TotalPayrollAmount,
		TotalRefundAmount:  s.TotalRefundAmount,
		TotalExpenseAmount: s.TotalExpenseAmount,

		GrossProfit: s.GrossProfit,
		NetProfit:   s.NetProfit,
		ProfitRate:  s.ProfitRate,

		PrevMonthComparison: s.PrevMonthComparison,
		GrowthRate:          s.GrowthRate,

		CalculatedAt: s.CalculatedAt,
		ConfirmedAt:  s.ConfirmedAt,
		ConfirmedBy:  s.ConfirmedBy,
		Notes:        s.Notes,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
