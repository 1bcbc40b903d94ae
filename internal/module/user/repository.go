package user

import (
	"context"

	"gorm.io/gorm"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/pkg"
)

var listSpec = pkg.ListSpec{
	SortFields:   []string{"id", "name", "email", "role", "created_at", "updated_at"},
	FilterFields: []string{"name", "email", "role"},
}

var errEmailTaken = domain.NewAppError(domain.CodeAlreadyExists, "email already registered", nil)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository backed by db.
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return mapError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.User], error) {
	return pkg.FindPage[domain.User](r.db.WithContext(ctx).Model(&domain.User{}), req, listSpec)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	return mapError(r.db.WithContext(ctx).Save(user).Error)
}

// Delete removes the user, their bookings and their subscriptions in one
// transaction.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		result := tx.Delete(&domain.User{}, id)
		if result.Error != nil {
			return mapError(result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Booking{}).Error; err != nil {
			return mapError(err)
		}
		return mapError(tx.Where("user_id = ?", id).Delete(&domain.Subscription{}).Error)
	})
}

func mapError(err error) error {
	err = pkg.MapDBError(err)
	if domain.IsAlreadyExists(err) {
		return errEmailTaken
	}
	return err
}
