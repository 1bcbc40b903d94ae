package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/middleware"
	"github.com/simp-lee/studiogate/internal/pkg"
)

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	svc Service
}

// NewHandler creates an AuthHandler.
func NewHandler(svc Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	tokenResp, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, tokenResp)
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, toUserResponse(user))
}

// Me handles GET /api/auth/me. It must run behind JWTAuth.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		pkg.Error(c, domain.ErrUnauthorized)
		return
	}

	user, err := h.svc.Me(c.Request.Context(), userID)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, toUserResponse(user))
}

// Logout handles POST /api/auth/logout. It must run behind JWTAuth.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.CurrentToken(c)); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
