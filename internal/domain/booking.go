package domain

import (
	"context"
	"time"
)

// Booking states.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking is a reserved spot for a user in a class. A user holds at most one
// confirmed booking per class.
type Booking struct {
	BaseModel
	UserID      uint       `gorm:"not null;index;uniqueIndex:idx_bookings_confirmed,priority:1,where:status = 'confirmed'" json:"user_id"`
	ClassID     uint       `gorm:"not null;index;uniqueIndex:idx_bookings_confirmed,priority:2" json:"class_id"`
	Status      string     `gorm:"size:20;not null;index" json:"status"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// BookingRepository defines the data access interface for bookings.
type BookingRepository interface {
	// Reserve atomically checks the booking rules and stores a confirmed
	// booking for userID in classID, evaluated at time at.
	Reserve(ctx context.Context, userID, classID uint, at time.Time) (*Booking, error)
	GetByID(ctx context.Context, id uint) (*Booking, error)
	List(ctx context.Context, req PageRequest) (*PageResult[Booking], error)
	Update(ctx context.Context, booking *Booking) error
}

// BookingService defines the business logic interface for bookings.
type BookingService interface {
	Book(ctx context.Context, userID, classID uint) (*Booking, error)
	GetBooking(ctx context.Context, id uint) (*Booking, error)
	ListBookings(ctx context.Context, req PageRequest) (*PageResult[Booking], error)
	CancelBooking(ctx context.Context, id uint) (*Booking, error)
}
