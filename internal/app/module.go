package app

import "github.com/gin-gonic/gin"

// Module defines the contract for a self-registering business module.
// public is mounted under /api without authentication. protected is the same
// prefix behind the token guard when auth is enabled, and equal to public
// otherwise.
type Module interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}
