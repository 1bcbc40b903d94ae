package booking

import "github.com/gin-gonic/gin"

// BookingModule mounts the booking endpoints.
type BookingModule struct {
	handler *BookingHandler
}

// NewModule creates a BookingModule. Panics if h is nil.
func NewModule(h *BookingHandler) *BookingModule {
	if h == nil {
		panic("booking.NewModule: handler must not be nil")
	}
	return &BookingModule{handler: h}
}

func (m *BookingModule) RegisterRoutes(_, protected *gin.RouterGroup) {
	bookings := protected.Group("/bookings")
	bookings.POST("", m.handler.Create)
	bookings.GET("", m.handler.List)
	bookings.GET("/:id", m.handler.Get)
	bookings.POST("/:id/cancel", m.handler.Cancel)
}
