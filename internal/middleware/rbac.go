package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wowcampus/auth-api/internal/models"
	"github.com/wowcampus/auth-api/internal/token"
	appErrors "github.com/wowcampus/auth-api/pkg/errors"
	"github.com/wowcampus/auth-api/pkg/response"
)

// RBAC enforces role-based access control for routes. The literal
// "SELF" allows a user through when the :id path parameter matches
// their own account.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*token.Claims)

		allowSelf := false
		allowedRoles := make(map[models.UserRole]struct{})

		for _, a := range allowed {
			if a == "SELF" {
				allowSelf = true
				continue
			}
			allowedRoles[models.UserRole(a)] = struct{}{}
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf {
			if targetID := c.Param("id"); targetID != "" && targetID == strconv.FormatInt(claims.UserID, 10) {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
