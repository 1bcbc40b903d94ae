package dashboard

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/pkg"
)

// DashboardHandler serves the read-only /api/dashboard endpoints.
type DashboardHandler struct {
	svc domain.DashboardService
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(svc domain.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, stats)
}

func (h *DashboardHandler) Upcoming(c *gin.Context) {
	limit := pkg.ParseLimit(c, "limit", defaultUpcomingLimit, maxUpcomingLimit)
	classes, err := h.svc.Upcoming(c.Request.Context(), limit)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, classes)
}
