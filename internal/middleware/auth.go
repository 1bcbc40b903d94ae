package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/pkg"
)

const (
	userIDContextKey   = "user_id"
	userRoleContextKey = "user_role"
	tokenContextKey    = "access_token"
)

// TokenParser verifies a bearer token.
type TokenParser interface {
	Parse(raw string) (*pkg.TokenClaims, error)
}

var errMissingToken = domain.NewAppError(domain.CodeUnauthorized, "missing bearer token", nil)

// JWTAuth rejects requests without a valid "Authorization: Bearer" token with
// 401. On success the user id and role are stored on the context.
func JWTAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, raw, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		raw = strings.TrimSpace(raw)
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			pkg.Error(c, errMissingToken)
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			pkg.Error(c, err)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			pkg.Error(c, err)
			return
		}

		c.Set(userIDContextKey, userID)
		c.Set(userRoleContextKey, claims.Role)
		c.Set(tokenContextKey, raw)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id set by JWTAuth.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDContextKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// CurrentUserRole returns the role claim set by JWTAuth.
func CurrentUserRole(c *gin.Context) string {
	return c.GetString(userRoleContextKey)
}

// CurrentToken returns the raw bearer token accepted by JWTAuth.
func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenContextKey)
}
