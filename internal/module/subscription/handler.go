package subscription

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/pkg"
)

// SubscriptionHandler serves the /api/subscriptions resource.
type SubscriptionHandler struct {
	svc domain.SubscriptionService
}

// NewSubscriptionHandler creates a SubscriptionHandler.
func NewSubscriptionHandler(svc domain.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

func (h *SubscriptionHandler) Create(c *gin.Context) {
	var req CreateSubscriptionRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	sub, err := h.svc.CreateSubscription(c.Request.Context(), domain.SubscriptionParams{
		UserID:   req.UserID,
		Plan:     req.Plan,
		StartsAt: deref(req.StartsAt),
		EndsAt:   deref(req.EndsAt),
	})
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, sub)
}

func (h *SubscriptionHandler) Get(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	sub, err := h.svc.GetSubscription(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, sub)
}

func (h *SubscriptionHandler) List(c *gin.Context) {
	result, err := h.svc.ListSubscriptions(c.Request.Context(), pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, result)
}

func (h *SubscriptionHandler) Update(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	var req UpdateSubscriptionRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	sub, err := h.svc.UpdateSubscription(c.Request.Context(), id, domain.SubscriptionParams{
		Plan:   req.Plan,
		Status: req.Status,
		EndsAt: deref(req.EndsAt),
	})
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, sub)
}

// Cancel handles POST /api/subscriptions/:id/cancel.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	sub, err := h.svc.CancelSubscription(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, sub)
}

func (h *SubscriptionHandler) Delete(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	if err := h.svc.DeleteSubscription(c.Request.Context(), id); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}
