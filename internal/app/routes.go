package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/studiogate/internal/config"
	"github.com/simp-lee/studiogate/internal/middleware"
	"github.com/simp-lee/studiogate/internal/pkg"
)

const readinessTimeout = time.Second

// RouteDeps holds all dependencies needed to register routes.
type RouteDeps struct {
	Modules  []Module
	DB       *gorm.DB
	Identity config.Identity
	// Metrics is nil when /metrics is disabled.
	Metrics *middleware.Metrics
	// Protect guards module routes on the protected group. Nil leaves them open.
	Protect gin.HandlerFunc
}

// now is swapped in tests.
var now = time.Now

// RegisterRoutes registers health endpoints, module routes and the 404 fallback.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}

	health := healthHandler()
	whoami := whoamiHandler(deps.Identity)
	r.GET("/health", health)
	r.GET("/whoami", whoami)
	r.GET("/ready", readyHandler(deps.DB))
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.GET("/health", health)
	api.GET("/whoami", whoami)

	protected := api
	if deps.Protect != nil {
		protected = api.Group("", deps.Protect)
	}

	for i, m := range deps.Modules {
		if m == nil {
			return fmt.Errorf("module at index %d is nil", i)
		}
		m.RegisterRoutes(api, protected)
	}

	r.NoRoute(noRouteHandler())
	return nil
}

func healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": pkg.Timestamp(now()),
		})
	}
}

func whoamiHandler(id config.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"hostname":   id.Hostname,
			"instanceId": id.InstanceID,
			"timestamp":  pkg.Timestamp(now()),
		})
	}
}

// readyHandler pings the database and reports status.
func readyHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, dbStatus, code := "ok", "ok", http.StatusOK
		if err := config.PingDatabase(c.Request.Context(), db, readinessTimeout); err != nil {
			status, dbStatus, code = "degraded", "error", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status": status,
			"components": gin.H{
				"database": dbStatus,
			},
		})
	}
}

// noRouteHandler answers every unmatched path or method.
func noRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	}
}
