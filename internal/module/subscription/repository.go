package subscription

import (
	"context"

	"gorm.io/gorm"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/pkg"
)

var listSpec = pkg.ListSpec{
	SortFields:   []string{"id", "user_id", "plan", "status", "starts_at", "ends_at", "created_at"},
	FilterFields: []string{"user_id", "plan", "status"},
}

var errActiveExists = domain.NewAppError(domain.CodeConflict, "user already has an active subscription", nil)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a SubscriptionRepository backed by db.
func NewSubscriptionRepository(db *gorm.DB) domain.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	return pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := ensureSingleActive(tx, sub); err != nil {
			return err
		}
		return pkg.MapDBError(tx.Create(sub).Error)
	})
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id uint) (*domain.Subscription, error) {
	var sub domain.Subscription
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) List(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.Subscription], error) {
	return pkg.FindPage[domain.Subscription](r.db.WithContext(ctx).Model(&domain.Subscription{}), req, listSpec)
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	return pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := ensureSingleActive(tx, sub); err != nil {
			return err
		}
		return pkg.MapDBError(tx.Save(sub).Error)
	})
}

func (r *subscriptionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Subscription{}, id)
	if result.Error != nil {
		return pkg.MapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ensureSingleActive fails when sub is active and the same user already
// holds a different active subscription.
func ensureSingleActive(tx *gorm.DB, sub *domain.Subscription) error {
	if sub.Status != domain.SubscriptionActive {
		return nil
	}

	q := tx.Model(&domain.Subscription{}).
		Where("user_id = ? AND status = ?", sub.UserID, domain.SubscriptionActive)
	if sub.ID != 0 {
		q = q.Where("id <> ?", sub.ID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return pkg.MapDBError(err)
	}
	if n > 0 {
		return errActiveExists
	}
	return nil
}
