package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/wowcampus/auth-api/internal/middleware"
	"github.com/wowcampus/auth-api/internal/token"
)

func claimsFromContext(c *gin.Context) *token.Claims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*token.Claims)
	if !ok {
		return nil
	}
	return claims
}
