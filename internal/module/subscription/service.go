package subscription

import (
	"context"
	"time"

	"github.com/simp-lee/studiogate/internal/domain"
)

var (
	errUserNotFound     = domain.NewAppError(domain.CodeNotFound, "user not found", nil)
	errInvalidPeriod    = domain.NewAppError(domain.CodeValidation, "ends_at must be after starts_at", nil)
	errAlreadyCancelled = domain.NewAppError(domain.CodeValidation, "subscription is already cancelled", nil)
)

type subscriptionService struct {
	repo  domain.SubscriptionRepository
	users domain.UserRepository
	now   func() time.Time
}

// NewSubscriptionService creates a SubscriptionService. users is consulted
// to make sure the subscriber exists.
func NewSubscriptionService(repo domain.SubscriptionRepository, users domain.UserRepository) domain.SubscriptionService {
	return &subscriptionService{repo: repo, users: users, now: time.Now}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, p domain.SubscriptionParams) (*domain.Subscription, error) {
	if p.Status == "" {
		p.Status = domain.SubscriptionActive
	}
	if p.StartsAt.IsZero() {
		p.StartsAt = s.now()
	}
	if p.EndsAt.IsZero() {
		p.EndsAt = p.StartsAt.Add(domain.DefaultSubscriptionPeriod)
	}

	sub := &domain.Subscription{
		UserID:   p.UserID,
		Plan:     p.Plan,
		Status:   p.Status,
		StartsAt: p.StartsAt.UTC(),
		EndsAt:   p.EndsAt.UTC(),
	}
	if err := validate(sub); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, p.UserID); err != nil {
		if domain.IsNotFound(err) {
			return nil, errUserNotFound
		}
		return nil, err
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id uint) (*domain.Subscription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.Subscription], error) {
	return s.repo.List(ctx, req)
}

// UpdateSubscription changes plan, status and end date. Zero values in p
// leave the stored field untouched; UserID and StartsAt are ignored.
func (s *subscriptionService) UpdateSubscription(ctx context.Context, id uint, p domain.SubscriptionParams) (*domain.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Plan != "" {
		sub.Plan = p.Plan
	}
	if p.Status != "" {
		sub.Status = p.Status
	}
	if !p.EndsAt.IsZero() {
		sub.EndsAt = p.EndsAt.UTC()
	}
	if err := validate(sub); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, id uint) (*domain.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == domain.SubscriptionCancelled {
		return nil, errAlreadyCancelled
	}

	sub.Status = domain.SubscriptionCancelled
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) DeleteSubscription(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func validate(sub *domain.Subscription) error {
	if sub.UserID == 0 {
		return domain.NewAppError(domain.CodeValidation, "user_id is required", nil)
	}
	if !domain.ValidPlan(sub.Plan) {
		return domain.NewAppError(domain.CodeValidation, "plan must be one of basic, premium, unlimited", nil)
	}
	if !domain.ValidSubscriptionStatus(sub.Status) {
		return domain.NewAppError(domain.CodeValidation, "status must be one of active, paused, cancelled, expired", nil)
	}
	if !sub.EndsAt.After(sub.StartsAt) {
		return errInvalidPeriod
	}
	return nil
}
