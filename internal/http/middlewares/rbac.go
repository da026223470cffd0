package middlewares

import (
	"net/http"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(required user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || role == "" {
			abortUnauthorized(c, "Missing identity context")
			return
		}
		if role != required {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":      "forbidden",
					"message":   string(required) + " role required",
					"requestId": c.GetString(CtxRequestID),
				},
			})
			return
		}
		c.Next()
	}
}
