package events

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	statsTagLimit    = 5
	statsRecentLimit = 5
)

// Stats aggregates event statistics: totals, activity counters, the five
// most-used tags and the five most recently created events. The independent
// queries are fanned out concurrently.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		total, err := s.repo.CountAll(ctx)
		stats.TotalEvents = total
		return err
	})
	group.Go(func() error {
		active, err := s.repo.CountByStatus(ctx, StatusActive)
		stats.ActiveEvents = active
		return err
	})
	group.Go(func() error {
		upcoming, err := s.repo.CountUpcoming(ctx, time.Now())
		stats.UpcomingEvents = upcoming
		return err
	})
	group.Go(func() error {
		tags, err := s.repo.TopTags(ctx, statsTagLimit)
		stats.PopularTags = tags
		return err
	})
	group.Go(func() error {
		recent, err := s.repo.Recent(ctx, statsRecentLimit)
		stats.RecentEvents = recent
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
