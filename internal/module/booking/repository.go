package booking

import (
	"context"
	"errors"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/pkg"
)

var listSpec = pkg.ListSpec{
	SortFields:   []string{"id", "user_id", "class_id", "status", "created_at"},
	FilterFields: []string{"user_id", "class_id", "status"},
}

var (
	errClassNotFound  = domain.NewAppError(domain.CodeNotFound, "class not found", nil)
	errUserNotFound   = domain.NewAppError(domain.CodeNotFound, "user not found", nil)
	errClassStarted   = domain.NewAppError(domain.CodeValidation, "class has already started", nil)
	errNoSubscription = domain.NewAppError(domain.CodeForbidden, "an active subscription covering the class is required", nil)
	errAlreadyBooked  = domain.NewAppError(domain.CodeConflict, "class already booked", nil)
	errClassFull      = domain.NewAppError(domain.CodeConflict, "class is full", nil)
)

type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a BookingRepository backed by db.
func NewBookingRepository(db *gorm.DB) domain.BookingRepository {
	return &bookingRepository{db: db}
}

// Reserve checks, in order: the class exists and starts after at, the user
// exists and holds an active subscription covering the class start, the user
// has no confirmed booking for the class, and a seat is left. The class row
// stays locked until the booking is stored, so concurrent reservations for
// one class run one at a time.
func (r *bookingRepository) Reserve(ctx context.Context, userID, classID uint, at time.Time) (*domain.Booking, error) {
	var booking *domain.Booking
	err := pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		var class domain.Class
		if err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).First(&class, classID).Error; err != nil {
			return notFound(err, errClassNotFound)
		}
		if !class.StartsAt.After(at) {
			return errClassStarted
		}

		var user domain.User
		if err := tx.Select("id").First(&user, userID).Error; err != nil {
			return notFound(err, errUserNotFound)
		}

		var subs []domain.Subscription
		if err := tx.Where("user_id = ? AND status = ?", userID, domain.SubscriptionActive).Find(&subs).Error; err != nil {
			return pkg.MapDBError(err)
		}
		if !slices.ContainsFunc(subs, func(s domain.Subscription) bool { return s.Covers(class.StartsAt) }) {
			return errNoSubscription
		}

		dup, err := count(tx.Model(&domain.Booking{}).
			Where("user_id = ? AND class_id = ? AND status = ?", userID, classID, domain.BookingConfirmed))
		if err != nil {
			return err
		}
		if dup > 0 {
			return errAlreadyBooked
		}

		booked, err := count(tx.Model(&domain.Booking{}).
			Where("class_id = ? AND status = ?", classID, domain.BookingConfirmed))
		if err != nil {
			return err
		}
		if booked >= int64(class.Capacity) {
			return errClassFull
		}

		booking = &domain.Booking{UserID: userID, ClassID: classID, Status: domain.BookingConfirmed}
		err = pkg.MapDBError(tx.Create(booking).Error)
		if domain.IsAlreadyExists(err) {
			return errAlreadyBooked
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uint) (*domain.Booking, error) {
	var booking domain.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}
	return &booking, nil
}

func (r *bookingRepository) List(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.Booking], error) {
	return pkg.FindPage[domain.Booking](r.db.WithContext(ctx).Model(&domain.Booking{}), req, listSpec)
}

func (r *bookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	return pkg.MapDBError(r.db.WithContext(ctx).Save(booking).Error)
}

func count(q *gorm.DB) (int64, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, pkg.MapDBError(err)
	}
	return n, nil
}

func notFound(err, replacement error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return replacement
	}
	return pkg.MapDBError(err)
}
