package user

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/middleware"
	"github.com/simp-lee/studiogate/internal/pkg"
)

var (
	errAssignRole   = domain.NewAppError(domain.CodeForbidden, "only admins can assign roles", nil)
	errUpdateOthers = domain.NewAppError(domain.CodeForbidden, "cannot modify another user", nil)
	errDeleteUser   = domain.NewAppError(domain.CodeForbidden, "only admins can delete users", nil)
)

// UserHandler serves the /api/users resource.
type UserHandler struct {
	svc   domain.UserService
	authz middleware.Authorizer
}

// NewUserHandler creates a UserHandler. authz gates role changes, deletes
// and edits of other accounts for authenticated callers.
func NewUserHandler(svc domain.UserService, authz middleware.Authorizer) *UserHandler {
	return &UserHandler{svc: svc, authz: authz}
}

// Create handles POST /api/users.
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	if req.Role != "" && req.Role != domain.RoleMember &&
		!middleware.Permitted(c, h.authz, pkg.ResourceUsers, pkg.ActionAssignRole) {
		pkg.Error(c, errAssignRole)
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), req.Name, req.Email, req.Role)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, user)
}

// Get handles GET /api/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, user)
}

// List handles GET /api/users.
func (h *UserHandler) List(c *gin.Context) {
	result, err := h.svc.ListUsers(c.Request.Context(), pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, result)
}

// Update handles PUT /api/users/:id. Callers edit their own account unless
// allowed to update others; changing a role needs the assign permission.
func (h *UserHandler) Update(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	var req UpdateUserRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	if callerID, ok := middleware.CurrentUserID(c); ok {
		if callerID != id && !middleware.Permitted(c, h.authz, pkg.ResourceUsers, pkg.ActionUpdateOthers) {
			pkg.Error(c, errUpdateOthers)
			return
		}
		if req.Role != "" {
			current, err := h.svc.GetUser(c.Request.Context(), id)
			if err != nil {
				pkg.Error(c, err)
				return
			}
			if req.Role != current.Role && !middleware.Permitted(c, h.authz, pkg.ResourceUsers, pkg.ActionAssignRole) {
				pkg.Error(c, errAssignRole)
				return
			}
		}
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), id, req.Name, req.Email, req.Role)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, user)
}

// Delete handles DELETE /api/users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	if !middleware.Permitted(c, h.authz, pkg.ResourceUsers, pkg.ActionDelete) {
		pkg.Error(c, errDeleteUser)
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}
