package auth

import "github.com/gin-gonic/gin"

// AuthModule mounts the auth endpoints.
type AuthModule struct {
	handler     *AuthHandler
	requireAuth gin.HandlerFunc
}

// NewModule creates an AuthModule. requireAuth guards /auth/me and
// /auth/logout regardless of
// whether the rest of the API is protected. Panics if either is nil.
func NewModule(h *AuthHandler, requireAuth gin.HandlerFunc) *AuthModule {
	if h == nil {
		panic("auth.NewModule: handler must not be nil")
	}
	if requireAuth == nil {
		panic("auth.NewModule: requireAuth must not be nil")
	}
	return &AuthModule{handler: h, requireAuth: requireAuth}
}

// RegisterRoutes mounts /auth on the public group.
func (m *AuthModule) RegisterRoutes(public, _ *gin.RouterGroup) {
	auth := public.Group("/auth")
	auth.POST("/login", m.handler.Login)
	auth.POST("/register", m.handler.Register)
	auth.GET("/me", m.requireAuth, m.handler.Me)
	auth.POST("/logout", m.requireAuth, m.handler.Logout)
}
