package booking

import (
	"context"
	"time"

	"github.com/simp-lee/studiogate/internal/domain"
)

var errAlreadyCancelled = domain.NewAppError(domain.CodeValidation, "booking is already cancelled", nil)

type bookingService struct {
	repo domain.BookingRepository
	now  func() time.Time
}

// NewBookingService creates a BookingService backed by repo.
func NewBookingService(repo domain.BookingRepository) domain.BookingService {
	return &bookingService{repo: repo, now: time.Now}
}

func (s *bookingService) Book(ctx context.Context, userID, classID uint) (*domain.Booking, error) {
	if userID == 0 {
		return nil, domain.NewAppError(domain.CodeValidation, "user_id is required", nil)
	}
	if classID == 0 {
		return nil, domain.NewAppError(domain.CodeValidation, "class_id is required", nil)
	}
	return s.repo.Reserve(ctx, userID, classID, s.now().UTC())
}

func (s *bookingService) GetBooking(ctx context.Context, id uint) (*domain.Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *bookingService) ListBookings(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.Booking], error) {
	return s.repo.List(ctx, req)
}

// CancelBooking frees the seat. The booking row is kept with its
// cancellation time.
func (s *bookingService) CancelBooking(ctx context.Context, id uint) (*domain.Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingCancelled {
		return nil, errAlreadyCancelled
	}

	now := s.now().UTC()
	booking.Status = domain.BookingCancelled
	booking.CancelledAt = &now
	if err := s.repo.Update(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}
