package middleware

import "github.com/gin-gonic/gin"

// Authorizer decides whether a role may perform action on resource.
type Authorizer interface {
	Allowed(role, resource, action string) bool
}

// Permitted reports whether the caller may perform action on resource.
// Requests that never passed JWTAuth run with auth disabled and are always
// permitted. Authenticated callers are denied when authz is nil.
func Permitted(c *gin.Context, authz Authorizer, resource, action string) bool {
	if _, ok := CurrentUserID(c); !ok {
		return true
	}
	if authz == nil {
		return false
	}
	return authz.Allowed(CurrentUserRole(c), resource, action)
}
