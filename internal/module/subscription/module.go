package subscription

import "github.com/gin-gonic/gin"

// SubscriptionModule mounts the subscription endpoints.
type SubscriptionModule struct {
	handler *SubscriptionHandler
}

// NewModule creates a SubscriptionModule. Panics if h is nil.
func NewModule(h *SubscriptionHandler) *SubscriptionModule {
	if h == nil {
		panic("subscription.NewModule: handler must not be nil")
	}
	return &SubscriptionModule{handler: h}
}

func (m *SubscriptionModule) RegisterRoutes(_, protected *gin.RouterGroup) {
	subs := protected.Group("/subscriptions")
	subs.POST("", m.handler.Create)
	subs.GET("", m.handler.List)
	subs.GET("/:id", m.handler.Get)
	subs.PUT("/:id", m.handler.Update)
	subs.POST("/:id/cancel", m.handler.Cancel)
	subs.DELETE("/:id", m.handler.Delete)
}
