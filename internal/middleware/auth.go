package middleware

import (
	"net/http"
	"strings"

	"doorstep/internal/pkg/jwt"
	"doorstep/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextSubjectID = "subject_id"
	ContextRole      = "role"
)

// JWTAuth verifies the bearer token and stores the subject id and role on the context.
func JWTAuth(tokens jwt.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header required")
			c.Abort()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be Bearer <token>")
			c.Abort()
			return
		}

		claims, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextSubjectID, claims.SubjectID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// SubjectID returns the authenticated subject, or 0 outside JWTAuth.
func SubjectID(c *gin.Context) int64 {
	return c.GetInt64(ContextSubjectID)
}
