package booking

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/middleware"
	"github.com/simp-lee/studiogate/internal/pkg"
)

var (
	errBookForOthers   = domain.NewAppError(domain.CodeForbidden, "members can only book for themselves", nil)
	errCancelForOthers = domain.NewAppError(domain.CodeForbidden, "only admins can cancel another user's booking", nil)
)

// BookingHandler serves the /api/bookings resource.
type BookingHandler struct {
	svc   domain.BookingService
	authz middleware.Authorizer
}

// NewBookingHandler creates a BookingHandler. authz decides who may book or
// cancel on behalf of other users.
func NewBookingHandler(svc domain.BookingService, authz middleware.Authorizer) *BookingHandler {
	return &BookingHandler{svc: svc, authz: authz}
}

// Create handles POST /api/bookings. Without user_id the authenticated
// caller is booked; booking for someone else needs the book_others
// permission.
func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	if callerID, ok := middleware.CurrentUserID(c); ok {
		if req.UserID == 0 {
			req.UserID = callerID
		}
		if req.UserID != callerID && !middleware.Permitted(c, h.authz, pkg.ResourceBookings, pkg.ActionBookOthers) {
			pkg.Error(c, errBookForOthers)
			return
		}
	}

	booking, err := h.svc.Book(c.Request.Context(), req.UserID, req.ClassID)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, booking)
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	booking, err := h.svc.GetBooking(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, booking)
}

func (h *BookingHandler) List(c *gin.Context) {
	result, err := h.svc.ListBookings(c.Request.Context(), pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, result)
}

// Cancel handles POST /api/bookings/:id/cancel. Callers cancel their own
// bookings; anyone else's needs the cancel_others permission.
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	if callerID, ok := middleware.CurrentUserID(c); ok {
		existing, err := h.svc.GetBooking(c.Request.Context(), id)
		if err != nil {
			pkg.Error(c, err)
			return
		}
		if existing.UserID != callerID && !middleware.Permitted(c, h.authz, pkg.ResourceBookings, pkg.ActionCancelOthers) {
			pkg.Error(c, errCancelForOthers)
			return
		}
	}

	booking, err := h.svc.CancelBooking(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, booking)
}
