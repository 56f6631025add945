package dashboard

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type mockReader struct {
	summary        MonthlySummary
	summaryCalls   int
	ranking        []DealerRank
	rankingCalls   int
	rankingLimit   int
	breakdown      ExpenseBreakdown
	breakdownCalls int
	trend          map[string]TrendPoint
	trendCalls     int
	trendDealer    *string
}

func (m *mockReader) MonthlySummary(ctx context.Context, month shared.MonthKey) (MonthlySummary, error) {
	m.summaryCalls++
	return m.summary, nil
}

func (m *mockReader) TopDealers(ctx context.Context, month shared.MonthKey, limit int) ([]DealerRank, error) {
	m.rankingCalls++
	m.rankingLimit = limit
	return m.ranking, nil
}

func (m *mockReader) ExpenseBreakdown(ctx context.Context, month shared.MonthKey) (ExpenseBreakdown, error) {
	m.breakdownCalls++
	return m.breakdown, nil
}

func (m *mockReader) YearlyTrend(ctx context.Context, year int, dealerCode *string) (map[string]TrendPoint, error) {
	m.trendCalls++
	m.trendDealer = dealerCode
	return m.trend, nil
}

func newCachedService(t *testing.T, repo *mockReader) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache)
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestGetMonthlyDashboardCaches(t *testing.T) {
	repo := &mockReader{
		summary: MonthlySummary{
			YearMonth:          "2025-09",
			DealerCount:        3,
			TotalSalesAmount:   dec("30000000"),
			TotalExpenseAmount: dec("8700000"),
			TotalNetProfit:     dec("18600000"),
			AverageProfitRate:  dec("62"),
		},
		ranking: []DealerRank{
			{Rank: 1, DealerCode: "ALPHA", NetProfit: dec("9000000")},
			{Rank: 2, DealerCode: "BRAVO", NetProfit: dec("6000000")},
		},
		breakdown: ExpenseBreakdown{
			DailyExpenses: dec("1500000"),
			FixedExpenses: dec("900000"),
			Payroll:       dec("6000000"),
			Refunds:       dec("300000"),
			Total:         dec("8700000"),
		},
	}
	svc, cleanup := newCachedService(t, repo)
	defer cleanup()

	ctx := context.Background()
	board, err := svc.GetMonthlyDashboard(ctx, shared.MonthKey("2025-09"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if board.Summary.DealerCount != 3 {
		t.Fatalf("dealer count = %d, want 3", board.Summary.DealerCount)
	}
	if len(board.DealerRanking) != 2 || board.DealerRanking[0].DealerCode != "ALPHA" {
		t.Fatalf("unexpected ranking: %+v", board.DealerRanking)
	}
	if !board.ExpenseBreakdown.Total.Equal(dec("8700000")) {
		t.Fatalf("breakdown total = %s", board.ExpenseBreakdown.Total)
	}
	if repo.rankingLimit != RankingSize {
		t.Fatalf("ranking limit = %d, want %d", repo.rankingLimit, RankingSize)
	}
	if repo.summaryCalls != 1 || repo.rankingCalls != 1 || repo.breakdownCalls != 1 {
		t.Fatalf("expected one repo call each, got %d/%d/%d",
			repo.summaryCalls, repo.rankingCalls, repo.breakdownCalls)
	}

	// Second call should hit cache.
	if _, err := svc.GetMonthlyDashboard(ctx, shared.MonthKey("2025-09")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.summaryCalls != 1 {
		t.Fatalf("expected cached result, repo called %d times", repo.summaryCalls)
	}

	// Bumping the version should trigger reload with fresh data.
	if err := svc.cache.Bump(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	repo.summary.DealerCount = 4
	board, err = svc.GetMonthlyDashboard(ctx, shared.MonthKey("2025-09"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if board.Summary.DealerCount != 4 {
		t.Fatalf("expected refreshed dealer count 4, got %d", board.Summary.DealerCount)
	}
	if repo.summaryCalls != 2 {
		t.Fatalf("expected repo to refresh, calls %d", repo.summaryCalls)
	}
}

func TestGetMonthlyDashboardEmptyMonth(t *testing.T) {
	repo := &mockReader{}
	svc := NewService(repo, nil)

	board, err := svc.GetMonthlyDashboard(context.Background(), shared.MonthKey("2025-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if board.DealerRanking == nil {
		t.Fatal("ranking must be an empty slice, not nil")
	}
	if len(board.DealerRanking) != 0 {
		t.Fatalf("expected empty ranking, got %d", len(board.DealerRanking))
	}
	if !board.Summary.TotalSalesAmount.IsZero() {
		t.Fatalf("expected zero summary, got %s", board.Summary.TotalSalesAmount)
	}
}

func TestGetMonthlyDashboardInvalidMonth(t *testing.T) {
	svc := NewService(&mockReader{}, nil)
	if _, err := svc.GetMonthlyDashboard(context.Background(), shared.MonthKey("2025-13")); err == nil {
		t.Fatal("expected error for invalid month")
	}
}

func TestGetYearlyTrendZeroFills(t *testing.T) {
	repo := &mockReader{
		trend: map[string]TrendPoint{
			"2025-03": {Month: "2025-03", Revenue: dec("5000000"), Expenses: dec("1000000"), NetProfit: dec("3500000"), DealerCount: 2},
			"2025-07": {Month: "2025-07", Revenue: dec("7000000"), Expenses: dec("1500000"), NetProfit: dec("4800000"), DealerCount: 3},
		},
	}
	svc, cleanup := newCachedService(t, repo)
	defer cleanup()

	points, err := svc.GetYearlyTrend(context.Background(), TrendFilter{Year: 2025})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 12 {
		t.Fatalf("expected 12 points, got %d", len(points))
	}
	if points[0].Month != "2025-01" || points[11].Month != "2025-12" {
		t.Fatalf("unexpected boundary months %s / %s", points[0].Month, points[11].Month)
	}
	if !points[2].Revenue.Equal(dec("5000000")) {
		t.Fatalf("march revenue = %s", points[2].Revenue)
	}
	if !points[0].Revenue.IsZero() || points[0].DealerCount != 0 {
		t.Fatalf("expected zero-filled january, got %+v", points[0])
	}

	// Cached on second read.
	if _, err := svc.GetYearlyTrend(context.Background(), TrendFilter{Year: 2025}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.trendCalls != 1 {
		t.Fatalf("expected cached trend, repo called %d times", repo.trendCalls)
	}
}

func TestGetYearlyTrendDealerScopedKeys(t *testing.T) {
	repo := &mockReader{trend: map[string]TrendPoint{}}
	svc, cleanup := newCachedService(t, repo)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.GetYearlyTrend(ctx, TrendFilter{Year: 2025}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dealer := "ENT"
	if _, err := svc.GetYearlyTrend(ctx, TrendFilter{Year: 2025, DealerCode: &dealer}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Scoped and unscoped queries must not share cache entries.
	if repo.trendCalls != 2 {
		t.Fatalf("expected separate cache keys, repo called %d times", repo.trendCalls)
	}
	if repo.trendDealer == nil || *repo.trendDealer != "ENT" {
		t.Fatalf("dealer filter not forwarded: %v", repo.trendDealer)
	}
}

func TestGetYearlyTrendInvalidYear(t *testing.T) {
	svc := NewService(&mockReader{}, nil)
	if _, err := svc.GetYearlyTrend(context.Background(), TrendFilter{Year: 99}); err == nil {
		t.Fatal("expected error for two-digit year")
	}
}
