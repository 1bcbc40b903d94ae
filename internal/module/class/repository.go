package class

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/pkg"
)

var listSpec = pkg.ListSpec{
	SortFields:   []string{"id", "name", "instructor", "starts_at", "capacity", "created_at"},
	FilterFields: []string{"name", "instructor"},
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository creates a ClassRepository backed by db.
func NewClassRepository(db *gorm.DB) domain.ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(ctx context.Context, class *domain.Class) error {
	return pkg.MapDBError(r.db.WithContext(ctx).Create(class).Error)
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (*domain.Class, error) {
	var class domain.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}
	return &class, nil
}

func (r *classRepository) List(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.Class], error) {
	return pkg.FindPage[domain.Class](r.db.WithContext(ctx).Model(&domain.Class{}), req, listSpec)
}

// Update takes the same row lock as booking reservations, so a capacity
// change and a new booking for the class cannot interleave.
func (r *classRepository) Update(ctx context.Context, id uint, fn func(*domain.Class, int64) error) (*domain.Class, error) {
	var class domain.Class
	err := pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).First(&class, id).Error; err != nil {
			return pkg.MapDBError(err)
		}

		var booked int64
		if err := tx.Model(&domain.Booking{}).
			Where("class_id = ? AND status = ?", id, domain.BookingConfirmed).
			Count(&booked).Error; err != nil {
			return pkg.MapDBError(err)
		}

		if err := fn(&class, booked); err != nil {
			return err
		}
		return pkg.MapDBError(tx.Save(&class).Error)
	})
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepository) Delete(ctx context.Context, id uint) error {
	return pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		result := tx.Delete(&domain.Class{}, id)
		if result.Error != nil {
			return pkg.MapDBError(result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return pkg.MapDBError(tx.Where("class_id = ?", id).Delete(&domain.Booking{}).Error)
	})
}
