package dashboard

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/pkg"
)

type dashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository creates a DashboardRepository backed by db.
func NewDashboardRepository(db *gorm.DB) domain.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) Stats(ctx context.Context, now time.Time) (*domain.DashboardStats, error) {
	db := r.db.WithContext(ctx)
	stats := &domain.DashboardStats{GeneratedAt: now}

	counts := []struct {
		dst *int64
		q   *gorm.DB
	}{
		{&stats.Users, db.Model(&domain.User{})},
		{&stats.ActiveSubscriptions, db.Model(&domain.Subscription{}).
			Where("status = ? AND starts_at <= ? AND ends_at > ?", domain.SubscriptionActive, now, now)},
		{&stats.UpcomingClasses, db.Model(&domain.Class{}).Where("starts_at > ?", now)},
		{&stats.ConfirmedBookings, db.Model(&domain.Booking{}).Where("status = ?", domain.BookingConfirmed)},
	}
	for _, c := range counts {
		if err := c.q.Count(c.dst).Error; err != nil {
			return nil, pkg.MapDBError(err)
		}
	}
	return stats, nil
}

// Upcoming returns up to limit classes starting after now, soonest first,
// with their confirmed booking counts.
func (r *dashboardRepository) Upcoming(ctx context.Context, now time.Time, limit int) ([]domain.ClassOccupancy, error) {
	db := r.db.WithContext(ctx)

	var classes []domain.Class
	err := db.Where("starts_at > ?", now).
		Order("starts_at ASC").Order("id ASC").
		Limit(limit).
		Find(&classes).Error
	if err != nil {
		return nil, pkg.MapDBError(err)
	}
	if len(classes) == 0 {
		return []domain.ClassOccupancy{}, nil
	}

	ids := make([]uint, len(classes))
	for i, c := range classes {
		ids[i] = c.ID
	}

	var rows []struct {
		ClassID uint
		Booked  int64
	}
	err = db.Model(&domain.Booking{}).
		Select("class_id, COUNT(*) AS booked").
		Where("status = ? AND class_id IN ?", domain.BookingConfirmed, ids).
		Group("class_id").
		Scan(&rows).Error
	if err != nil {
		return nil, pkg.MapDBError(err)
	}

	booked := make(map[uint]int64, len(rows))
	for _, row := range rows {
		booked[row.ClassID] = row.Booked
	}

	out := make([]domain.ClassOccupancy, len(classes))
	for i, c := range classes {
		n := booked[c.ID]
		out[i] = domain.ClassOccupancy{Class: c, Booked: n, Remaining: max(int64(c.Capacity)-n, 0)}
	}
	return out, nil
}
