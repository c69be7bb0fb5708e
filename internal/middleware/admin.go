package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/pollwise/backend/internal/access"
	"github.com/pollwise/backend/pkg/response"
)

// RequireAdmin returns a middleware that allows only identities from the
// guard's configured allow-list. It must run behind JWT.
func RequireAdmin(guard *access.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := UserEmail(c)
		if email == "" {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if !guard.IsAdmin(email) {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
