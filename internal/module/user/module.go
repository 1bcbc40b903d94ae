package user

import "github.com/gin-gonic/gin"

// UserModule mounts the user endpoints.
type UserModule struct {
	handler *UserHandler
}

// NewModule creates a UserModule. Panics if h is nil.
func NewModule(h *UserHandler) *UserModule {
	if h == nil {
		panic("user.NewModule: handler must not be nil")
	}
	return &UserModule{handler: h}
}

// RegisterRoutes mounts /users on the protected group.
func (m *UserModule) RegisterRoutes(_, protected *gin.RouterGroup) {
	users := protected.Group("/users")
	users.POST("", m.handler.Create)
	users.GET("", m.handler.List)
	users.GET("/:id", m.handler.Get)
	users.PUT("/:id", m.handler.Update)
	users.DELETE("/:id", m.handler.Delete)
}
