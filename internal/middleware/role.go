package middleware

import (
	"net/http"
	"slices"

	"doorstep/internal/pkg/jwt"
	"doorstep/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the token role is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		if !slices.Contains(roles, role) {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return RequireRole(jwt.RoleAdmin)
}

func TechnicianOnly() gin.HandlerFunc {
	return RequireRole(jwt.RoleTechnician)
}
