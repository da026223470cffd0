package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/accounthub/internal/actorctx"
	"github.com/geocoder89/accounthub/internal/auth"
	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":      "unauthorized",
			"message":   message,
			"requestId": c.GetString(CtxRequestID),
		},
	})
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c, "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired access token")
			return
		}

		// an unknown role in a valid token is treated as no role at all
		role, err := user.ParseRole(claims.Role)
		if err != nil {
			abortUnauthorized(c, "Access token carries an unknown role")
			return
		}

		// Stash useful bits of identity on the context
		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxEmailKey, claims.Email)
		c.Set(ctxRoleKey, role)

		c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), actorctx.Actor{
			UserID: claims.UserID,
			Role:   role,
		}))

		c.Next()
	}
}

// helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func RoleFromContext(c *gin.Context) (user.Role, bool) {
	v, ok := c.Get(ctxRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(user.Role)
	return role, ok
}
