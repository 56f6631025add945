package settlement

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal {
	out, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return out
}

func TestComputeProfitability(t *testing.T) {
	cases := []struct {
		name      string
		sales     string
		vat       string
		expenses  string
		wantGross string
		wantNet   string
		wantRate  string
	}{
		{"typical month", "10000000", "900000", "2900000", "9100000", "6200000", "62"},
		{"zero sales", "0", "0", "150000", "0", "-150000", "0"},
		{"negative net", "1000000", "100000", "2000000", "900000", "-1100000", "-110"},
		{"fractional rate", "3000000", "300000", "1700000", "2700000", "1000000", "33.33"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeProfitability(d(tc.sales), d(tc.vat), d(tc.expenses))
			if !got.GrossProfit.Equal(d(tc.wantGross)) {
				t.Fatalf("gross profit = %s, want %s", got.GrossProfit, tc.wantGross)
			}
			if !got.NetProfit.Equal(d(tc.wantNet)) {
				t.Fatalf("net profit = %s, want %s", got.NetProfit, tc.wantNet)
			}
			if !got.ProfitRate.Equal(d(tc.wantRate)) {
				t.Fatalf("profit rate = %s, want %s", got.ProfitRate, tc.wantRate)
			}
		})
	}
}

func TestComputeGrowth(t *testing.T) {
	prior := d("6200000")
	got := ComputeGrowth(d("7130000"), &prior)
	if !got.PrevMonthComparison.Equal(d("930000")) {
		t.Fatalf("comparison = %s, want 930000", got.PrevMonthComparison)
	}
	if !got.GrowthRate.Equal(d("15")) {
		t.Fatalf("growth rate = %s, want 15", got.GrowthRate)
	}
}

func TestComputeGrowthNegativePrior(t *testing.T) {
	// Growth divides by |prior| so recovering from a loss reads positive.
	prior := d("-500000")
	got := ComputeGrowth(d("250000"), &prior)
	if !got.PrevMonthComparison.Equal(d("750000")) {
		t.Fatalf("comparison = %s, want 750000", got.PrevMonthComparison)
	}
	if !got.GrowthRate.Equal(d("150")) {
		t.Fatalf("growth rate = %s, want 150", got.GrowthRate)
	}
}

func TestComputeGrowthNoPrior(t *testing.T) {
	got := ComputeGrowth(d("7130000"), nil)
	if !got.PrevMonthComparison.IsZero() || !got.GrowthRate.IsZero() {
		t.Fatalf("expected zero growth without prior month, got %s / %s",
			got.PrevMonthComparison, got.GrowthRate)
	}
}

func TestComputeGrowthZeroPrior(t *testing.T) {
	// A break-even prior month still has a defined absolute movement; only
	// the percentage is undefined.
	zero := decimal.Zero
	got := ComputeGrowth(d("7130000"), &zero)
	if !got.PrevMonthComparison.Equal(d("7130000")) {
		t.Fatalf("comparison = %s, want 7130000", got.PrevMonthComparison)
	}
	if !got.GrowthRate.IsZero() {
		t.Fatalf("growth rate = %s, want 0 against zero prior", got.GrowthRate)
	}
}

func TestExpenseTotal(t *testing.T) {
	total := ExpenseTotal(d("500000"), d("300000"), d("2000000"), d("100000"))
	if !total.Equal(d("2900000")) {
		t.Fatalf("expense total = %s, want 2900000", total)
	}
}
