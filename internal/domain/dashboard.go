package domain

import (
	"context"
	"time"
)

// DashboardStats summarizes studio activity at a point in time.
type DashboardStats struct {
	Users               int64     `json:"users"`
	ActiveSubscriptions int64     `json:"active_subscriptions"`
	UpcomingClasses     int64     `json:"upcoming_classes"`
	ConfirmedBookings   int64     `json:"confirmed_bookings"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// ClassOccupancy is an upcoming class with its booking counts.
type ClassOccupancy struct {
	Class
	Booked    int64 `json:"booked"`
	Remaining int64 `json:"remaining"`
}

// DashboardRepository defines the aggregate queries behind the dashboard.
type DashboardRepository interface {
	Stats(ctx context.Context, now time.Time) (*DashboardStats, error)
	Upcoming(ctx context.Context, now time.Time, limit int) ([]ClassOccupancy, error)
}

// DashboardService defines the business logic interface for the dashboard.
type DashboardService interface {
	Stats(ctx context.Context) (*DashboardStats, error)
	Upcoming(ctx context.Context, limit int) ([]ClassOccupancy, error)
}
