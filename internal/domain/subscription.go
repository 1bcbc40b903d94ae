package domain

import (
	"context"
	"time"
)

// Subscription plans.
const (
	PlanBasic     = "basic"
	PlanPremium   = "premium"
	PlanUnlimited = "unlimited"
)

// Subscription states.
const (
	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// DefaultSubscriptionPeriod is the length of a subscription when no end is given.
const DefaultSubscriptionPeriod = 30 * 24 * time.Hour

// Subscription is a membership plan held by a user for a period of time.
type Subscription struct {
	BaseModel
	UserID   uint      `gorm:"not null;index" json:"user_id"`
	Plan     string    `gorm:"size:20;not null" json:"plan"`
	Status   string    `gorm:"size:20;not null;index" json:"status"`
	StartsAt time.Time `gorm:"not null" json:"starts_at"`
	EndsAt   time.Time `gorm:"not null" json:"ends_at"`
}

// Covers reports whether the subscription is active at t.
func (s *Subscription) Covers(t time.Time) bool {
	return s.Status == SubscriptionActive && !t.Before(s.StartsAt) && t.Before(s.EndsAt)
}

// ValidPlan reports whether plan is a known subscription plan.
func ValidPlan(plan string) bool {
	switch plan {
	case PlanBasic, PlanPremium, PlanUnlimited:
		return true
	default:
		return false
	}
}

// ValidSubscriptionStatus reports whether status is a known subscription state.
func ValidSubscriptionStatus(status string) bool {
	switch status {
	case SubscriptionActive, SubscriptionPaused, SubscriptionCancelled, SubscriptionExpired:
		return true
	default:
		return false
	}
}

// SubscriptionParams carries the writable fields of a subscription.
// A zero EndsAt means "StartsAt plus DefaultSubscriptionPeriod".
type SubscriptionParams struct {
	UserID   uint
	Plan     string
	Status   string
	StartsAt time.Time
	EndsAt   time.Time
}

// SubscriptionRepository defines the data access interface for subscriptions.
// Create and Update return a conflict when the user already holds another
// active subscription.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	List(ctx context.Context, req PageRequest) (*PageResult[Subscription], error)
	Update(ctx context.Context, sub *Subscription) error
	Delete(ctx context.Context, id uint) error
}

// SubscriptionService defines the business logic interface for subscriptions.
type SubscriptionService interface {
	CreateSubscription(ctx context.Context, params SubscriptionParams) (*Subscription, error)
	GetSubscription(ctx context.Context, id uint) (*Subscription, error)
	ListSubscriptions(ctx context.Context, req PageRequest) (*PageResult[Subscription], error)
	UpdateSubscription(ctx context.Context, id uint, params SubscriptionParams) (*Subscription, error)
	CancelSubscription(ctx context.Context, id uint) (*Subscription, error)
	DeleteSubscription(ctx context.Context, id uint) error
}
