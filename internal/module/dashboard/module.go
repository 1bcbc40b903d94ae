package dashboard

import "github.com/gin-gonic/gin"

// DashboardModule mounts the dashboard endpoints.
type DashboardModule struct {
	handler *DashboardHandler
}

// NewModule creates a DashboardModule. Panics if h is nil.
func NewModule(h *DashboardHandler) *DashboardModule {
	if h == nil {
		panic("dashboard.NewModule: handler must not be nil")
	}
	return &DashboardModule{handler: h}
}

func (m *DashboardModule) RegisterRoutes(_, protected *gin.RouterGroup) {
	dash := protected.Group("/dashboard")
	dash.GET("/stats", m.handler.Stats)
	dash.GET("/upcoming", m.handler.Upcoming)
}
