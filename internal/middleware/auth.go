package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/okastudio/platewatch/internal/auth"
	"github.com/okastudio/platewatch/internal/models"
	apperrors "github.com/okastudio/platewatch/pkg/errors"
	"github.com/okastudio/platewatch/pkg/response"
)

// Context keys populated by the auth middleware.
const (
	CtxUserIDKey = "auth.user_id"
	CtxRoleKey   = "auth.role"
)

// JWTAuth validates the bearer token and stores the caller identity on the
// request context. Websocket clients may pass the token as a query parameter
// since browsers cannot set headers on upgrade requests.
func JWTAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			response.Error(c, apperrors.ErrUnauthorized.WithInternal(err))
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxRoleKey, claims.Role)
		c.Next()
	}
}

// AdminOnly gates a route group to moderators. It must run after JWTAuth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(CtxRoleKey)
		if role != models.RoleAdmin {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(c.Query("token"))
}

// UserID returns the authenticated caller's id, if any.
func UserID(c *gin.Context) (string, bool) {
	value, ok := c.Get(CtxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}
