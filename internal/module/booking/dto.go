package booking

// CreateBookingRequest is the body of POST /api/bookings. user_id may be
// omitted by an authenticated caller booking for themselves.
type CreateBookingRequest struct {
	UserID  uint `json:"user_id" form:"user_id" binding:"omitempty,min=1"`
	ClassID uint `json:"class_id" form:"class_id" binding:"required,min=1"`
}
