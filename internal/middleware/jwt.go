package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wowcampus/auth-api/internal/service"
	appErrors "github.com/wowcampus/auth-api/pkg/errors"
	"github.com/wowcampus/auth-api/pkg/response"
)

// ContextUserKey is the gin context key storing validated claims.
const ContextUserKey = "currentUser"

// AccessTokenCookie is the fallback transport for browser clients
// that cannot attach an Authorization header.
const AccessTokenCookie = "wowcampus_token"

// JWT protects routes by requiring a valid, non-blacklisted access
// token. The Authorization header wins over the cookie.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractToken(c)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		claims, err := authService.ValidateAccessToken(c.Request.Context(), tokenString)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
		}
		return parts[1], nil
	}

	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie, nil
	}

	return "", appErrors.Clone(appErrors.ErrUnauthorized, "")
}
