package dashboard

import (
	"context"
	"time"

	"github.com/simp-lee/studiogate/internal/domain"
)

const (
	defaultUpcomingLimit = 10
	maxUpcomingLimit     = 50
)

type dashboardService struct {
	repo domain.DashboardRepository
	now  func() time.Time
}

// NewDashboardService creates a DashboardService backed by repo.
func NewDashboardService(repo domain.DashboardRepository) domain.DashboardService {
	return &dashboardService{repo: repo, now: time.Now}
}

func (s *dashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	return s.repo.Stats(ctx, s.now().UTC())
}

// Upcoming clamps limit to [1, 50]; non-positive values use the default of 10.
func (s *dashboardService) Upcoming(ctx context.Context, limit int) ([]domain.ClassOccupancy, error) {
	switch {
	case limit <= 0:
		limit = defaultUpcomingLimit
	case limit > maxUpcomingLimit:
		limit = maxUpcomingLimit
	}
	return s.repo.Upcoming(ctx, s.now().UTC(), limit)
}
