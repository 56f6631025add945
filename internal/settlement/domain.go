package settlement

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Status enumerates the settlement lifecycle stages.
// Transitions are forward-only: DRAFT -> CONFIRMED -> CLOSED.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusConfirmed Status = "CONFIRMED"
	StatusClosed    Status = "CLOSED"
)

// Settlement is the persisted monthly financial summary for one dealer.
// Unique on (YearMonth, DealerCode). Derived fields are recomputed as a
// set on every generation; TotalExpenseAmount always equals the sum of
// the four expense components.
type Settlement struct {
	ID         int64
	YearMonth  shared.MonthKey
	DealerCode string
	Status     Status

	TotalSalesAmount  decimal.Decimal
	TotalSalesCount   int64
	TotalVATAmount    decimal.Decimal
	AverageMarginRate decimal.Decimal

	TotalDailyExpenses decimal.Decimal
	TotalFixedExpenses decimal.Decimal
	TotalPayrollAmount decimal.Decimal
	TotalRefundAmount  decimal.Decimal
	TotalExpenseAmount decimal.Decimal

	GrossProfit decimal.Decimal
	NetProfit   decimal.Decimal
	ProfitRate  decimal.Decimal

	PrevMonthComparison decimal.Decimal
	GrowthRate          decimal.Decimal

	CalculatedAt *time.Time
	ConfirmedAt  *time.Time
	ConfirmedBy  *int64
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RevenueSummary carries the sales-side aggregates for a dealer month.
type RevenueSummary struct {
	TotalSalesAmount  decimal.Decimal
	TotalSalesCount   int64
	TotalVATAmount    decimal.Decimal
	AverageMarginRate decimal.Decimal
}

// ExpenseSummary carries the ad-hoc and month-tagged expense aggregates.
type ExpenseSummary struct {
	DailyExpenses decimal.Decimal
	FixedExpenses decimal.Decimal
}

// Total returns the combined daily plus fixed expense amount.
func (e ExpenseSummary) Total() decimal.Decimal {
	return e.DailyExpenses.Add(e.FixedExpenses)
}

// BatchOutcome reports the result of one dealer within a batch generation.
type BatchOutcome struct {
	DealerCode string           `json:"dealer_code"`
	Status     string           `json:"status"`
	NetProfit  *decimal.Decimal `json:"net_profit,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Batch outcome status values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// GenerateInput identifies the dealer month to (re)compute.
type GenerateInput struct {
	YearMonth  shared.MonthKey
	DealerCode string
}

// Validate checks the generation key.
func (in GenerateInput) Validate() error {
	if !in.YearMonth.Valid() {
		return ErrInvalidMonth
	}
	if strings.TrimSpace(in.DealerCode) == "" {
		return ErrDealerRequired
	}
	return nil
}

// ErrNotFound indicates the settlement does not exist.
var ErrNotFound = errors.New("settlement: not found")

// ErrInvalidMonth indicates a malformed YYYY-MM key.
var ErrInvalidMonth = errors.New("settlement: invalid month, expected YYYY-MM")

// ErrDealerRequired indicates a missing dealer code.
var ErrDealerRequired = errors.New("settlement: dealer code required")

// ErrNotDraft is returned when confirming a settlement that is not in DRAFT.
var ErrNotDraft = errors.New("settlement: only draft settlements can be confirmed")

// ErrNotConfirmed is returned when closing a settlement that is not CONFIRMED.
var ErrNotConfirmed = errors.New("settlement: only confirmed settlements can be closed")

// ErrClosed is returned when regenerating a closed settlement.
var ErrClosed = errors.New("settlement: closed settlements are immutable")

// ErrActorRequired indicates a missing confirming actor.
var ErrActorRequired = errors.New("settlement: actor required")
