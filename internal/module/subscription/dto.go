package subscription

import "time"

// CreateSubscriptionRequest is the body of POST /api/subscriptions.
// starts_at defaults to now and ends_at to starts_at plus 30 days.
type CreateSubscriptionRequest struct {
	UserID   uint       `json:"user_id" form:"user_id" binding:"required,min=1"`
	Plan     string     `json:"plan" form:"plan" binding:"required,oneof=basic premium unlimited"`
	StartsAt *time.Time `json:"starts_at" form:"starts_at" time_format:"2006-01-02T15:04:05Z07:00"`
	EndsAt   *time.Time `json:"ends_at" form:"ends_at" time_format:"2006-01-02T15:04:05Z07:00"`
}

// UpdateSubscriptionRequest is the body of PUT /api/subscriptions/:id.
// Omitted fields keep their current values.
type UpdateSubscriptionRequest struct {
	Plan   string     `json:"plan" form:"plan" binding:"omitempty,oneof=basic premium unlimited"`
	Status string     `json:"status" form:"status" binding:"omitempty,oneof=active paused cancelled expired"`
	EndsAt *time.Time `json:"ends_at" form:"ends_at" time_format:"2006-01-02T15:04:05Z07:00"`
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
