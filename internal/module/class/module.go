package class

import "github.com/gin-gonic/gin"

// ClassModule mounts the class schedule endpoints.
type ClassModule struct {
	handler *ClassHandler
}

// NewModule creates a ClassModule. Panics if h is nil.
func NewModule(h *ClassHandler) *ClassModule {
	if h == nil {
		panic("class.NewModule: handler must not be nil")
	}
	return &ClassModule{handler: h}
}

func (m *ClassModule) RegisterRoutes(_, protected *gin.RouterGroup) {
	classes := protected.Group("/classes")
	classes.POST("", m.handler.Create)
	classes.GET("", m.handler.List)
	classes.GET("/:id", m.handler.Get)
	classes.PUT("/:id", m.handler.Update)
	classes.DELETE("/:id", m.handler.Delete)
}
