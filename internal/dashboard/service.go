package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Service computes and caches the dashboard summary.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		now:   time.Now,
	}
}

// Summary returns the dashboard payload, served from cache when fresh.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	key, err := s.cache.BuildKey(ctx, keySummary())
	if err != nil {
		return nil, fmt.Errorf("build cache key: %w", err)
	}

	var out Summary
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.build(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	return &out, nil
}

// build runs the aggregate queries in parallel and assembles the payload.
// With no sales the series are zero filled and the type breakdown is an
// empty slice, never placeholder data.
func (s *Service) build(ctx context.Context) (*Summary, error) {
	now := s.now()
	today := dayStart(now)

	summary := &Summary{
		MonthlySales: MonthlySales{
			Months: make([]string, 6),
			Sales:  make([]float64, 6),
		},
		RevenueTrend: RevenueTrend{
			Days:    make([]string, 7),
			Revenue: make([]float64, 7),
		},
		SalesByProductType: []TypeRevenue{},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repo.CountProducts(ctx)
		summary.TotalProducts = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountCustomers(ctx)
		summary.TotalCustomers = n
		return err
	})
	g.Go(func() error {
		revenue, err := s.repo.RevenueBetween(ctx, today, dayEnd(today))
		summary.TodaysSalesRevenue = revenue
		return err
	})
	g.Go(func() error {
		breakdown, err := s.repo.RevenueByType(ctx)
		if breakdown != nil {
			summary.SalesByProductType = breakdown
		}
		return err
	})

	// oldest first, current month last
	for i := 0; i < 6; i++ {
		i := i
		month := time.Date(now.Year(), now.Month()-time.Month(5-i), 1, 0, 0, 0, 0, now.Location())
		summary.MonthlySales.Months[i] = month.Format("Jan")
		g.Go(func() error {
			end := month.AddDate(0, 1, 0).Add(-time.Millisecond)
			revenue, err := s.repo.RevenueBetween(ctx, month, end)
			summary.MonthlySales.Sales[i] = revenue
			return err
		})
	}

	// oldest first, today last
	for i := 0; i < 7; i++ {
		i := i
		day := today.AddDate(0, 0, -(6 - i))
		summary.RevenueTrend.Days[i] = day.Format("Mon")
		g.Go(func() error {
			revenue, err := s.repo.RevenueBetween(ctx, day, dayEnd(day))
			summary.RevenueTrend.Revenue[i] = revenue
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, 1).Add(-time.Millisecond)
}
