package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/ports"
)

const recentActivityLimit = 10

type DashboardService struct {
	stats    ports.DashboardRepository
	activity ports.ActivityRepository
	logger   zerolog.Logger
}

func NewDashboardService(stats ports.DashboardRepository, activity ports.ActivityRepository, logger zerolog.Logger) *DashboardService {
	return &DashboardService{stats: stats, activity: activity, logger: logger}
}

// Summary returns the headline counters and the latest activity entries.
func (s *DashboardService) Summary(ctx context.Context) (*ports.Dashboard, error) {
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to compute dashboard stats")
		return nil, err
	}

	recent, err := s.activity.Recent(ctx, recentActivityLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load recent activity")
		return nil, err
	}
	if recent == nil {
		recent = []domain.Activity{}
	}

	return &ports.Dashboard{Stats: *stats, RecentActivity: recent}, nil
}
