package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
)

func claimsFromContext(c *gin.Context) *middleware.Claims {
	value, exists := c.Get(middleware.ContextSubjectKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*middleware.Claims)
	if !ok {
		return nil
	}
	return claims
}
