package class

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/pkg"
)

// ClassHandler serves the /api/classes resource.
type ClassHandler struct {
	svc domain.ClassService
}

// NewClassHandler creates a ClassHandler.
func NewClassHandler(svc domain.ClassService) *ClassHandler {
	return &ClassHandler{svc: svc}
}

func (h *ClassHandler) Create(c *gin.Context) {
	var req ClassRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	class, err := h.svc.CreateClass(c.Request.Context(), req.params())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, class)
}

func (h *ClassHandler) Get(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	class, err := h.svc.GetClass(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, class)
}

func (h *ClassHandler) List(c *gin.Context) {
	result, err := h.svc.ListClasses(c.Request.Context(), pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, result)
}

func (h *ClassHandler) Update(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	var req ClassRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	class, err := h.svc.UpdateClass(c.Request.Context(), id, req.params())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, class)
}

func (h *ClassHandler) Delete(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	if err := h.svc.DeleteClass(c.Request.Context(), id); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}
