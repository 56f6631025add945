package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// SettlementReader exposes the persisted-settlement reductions the service
// relies on.
type SettlementReader interface {
	MonthlySummary(ctx context.Context, month shared.MonthKey) (MonthlySummary, error)
	TopDealers(ctx context.Context, month shared.MonthKey, limit int) ([]DealerRank, error)
	ExpenseBreakdown(ctx context.Context, month shared.MonthKey) (ExpenseBreakdown, error)
	YearlyTrend(ctx context.Context, year int, dealerCode *string) (map[string]TrendPoint, error)
}

// Service coordinates dashboard query execution with the cache layer.
type Service struct {
	repo  SettlementReader
	cache *Cache
}

// NewService wires a SettlementReader with a Cache helper.
func NewService(repo SettlementReader, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// GetMonthlyDashboard returns the month's cross-dealer summary, top-10
// leaderboard, and expense breakdown. The three reductions run concurrently.
func (s *Service) GetMonthlyDashboard(ctx context.Context, month shared.MonthKey) (MonthlyDashboard, error) {
	if !month.Valid() {
		return MonthlyDashboard{}, shared.ErrInvalidMonthKey
	}
	loader := func(ctx context.Context) (interface{}, error) {
		var board MonthlyDashboard
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			summary, err := s.repo.MonthlySummary(gctx, month)
			board.Summary = summary
			return err
		})
		g.Go(func() error {
			ranking, err := s.repo.TopDealers(gctx, month, RankingSize)
			board.DealerRanking = ranking
			return err
		})
		g.Go(func() error {
			breakdown, err := s.repo.ExpenseBreakdown(gctx, month)
			board.ExpenseBreakdown = breakdown
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if board.DealerRanking == nil {
			board.DealerRanking = []DealerRank{}
		}
		return board, nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return MonthlyDashboard{}, err
		}
		return value.(MonthlyDashboard), nil
	}

	key, err := s.cache.BuildKey(ctx, keyMonthly(month.String()))
	if err != nil {
		return MonthlyDashboard{}, err
	}
	var board MonthlyDashboard
	if err := s.cache.FetchJSON(ctx, key, &board, loader); err != nil {
		return MonthlyDashboard{}, err
	}
	return board, nil
}

// GetYearlyTrend returns twelve trend points for the year, zero-filled for
// months without settlements, optionally scoped to a single dealer.
func (s *Service) GetYearlyTrend(ctx context.Context, filter TrendFilter) ([]TrendPoint, error) {
	months, err := filter.Months()
	if err != nil {
		return nil, err
	}
	loader := func(ctx context.Context) (interface{}, error) {
		byMonth, err := s.repo.YearlyTrend(ctx, filter.Year, filter.DealerCode)
		if err != nil {
			return nil, err
		}
		points := make([]TrendPoint, 0, len(months))
		for _, month := range months {
			point, ok := byMonth[month.String()]
			if !ok {
				point = TrendPoint{Month: month.String()}
			}
			points = append(points, point)
		}
		return points, nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return value.([]TrendPoint), nil
	}

	key, err := s.cache.BuildKey(ctx, keyTrend(filter.Year, filter.DealerCode))
	if err != nil {
		return nil, err
	}
	var points []TrendPoint
	if err := s.cache.FetchJSON(ctx, key, &points, loader); err != nil {
		return nil, err
	}
	return points, nil
}
