package settlement

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Profitability holds the derived profit figures for one dealer month.
type Profitability struct {
	GrossProfit decimal.Decimal
	NetProfit   decimal.Decimal
	ProfitRate  decimal.Decimal
}

// Growth holds the month-over-month movement versus the prior settlement.
type Growth struct {
	PrevMonthComparison decimal.Decimal
	GrowthRate          decimal.Decimal
}

// ComputeProfitability applies the fixed settlement arithmetic:
// gross = sales - vat, net = gross - expenses, rate = net/sales*100.
// A zero sales total yields a zero rate rather than a division error.
func ComputeProfitability(sales, vat, expenses decimal.Decimal) Profitability {
	gross := sales.Sub(vat)
	net := gross.Sub(expenses)
	rate := decimal.Zero
	if sales.IsPositive() {
		rate = net.Div(sales).Mul(hundred).Round(2)
	}
	return Profitability{GrossProfit: gross, NetProfit: net, ProfitRate: rate}
}

// ComputeGrowth compares the current net profit against the prior month.
// A nil prior (no settlement last month) yields zeros. A zero prior still
// carries the absolute comparison; only the percentage is undefined and
// reported as zero.
func ComputeGrowth(current decimal.Decimal, prior *decimal.Decimal) Growth {
	if prior == nil {
		return Growth{PrevMonthComparison: decimal.Zero, GrowthRate: decimal.Zero}
	}
	comparison := current.Sub(*prior)
	rate := decimal.Zero
	if !prior.IsZero() {
		rate = comparison.Div(prior.Abs()).Mul(hundred).Round(2)
	}
	return Growth{PrevMonthComparison: comparison, GrowthRate: rate}
}

// ExpenseTotal sums the four expense categories.
func ExpenseTotal(daily, fixed, payroll, refund decimal.Decimal) decimal.Decimal {
	return daily.Add(fixed).Add(payroll).Add(refund)
}
