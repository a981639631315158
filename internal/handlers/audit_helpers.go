package handlers

import (
	"github.com/gin-gonic/gin"

	"market-chat/internal/middleware"
)

func userIDFromContext(c *gin.Context) *int64 {
	if val, ok := c.Get(middleware.UserIDKey); ok {
		if userID, ok := val.(int64); ok && userID != 0 {
			return &userID
		}
	}
	return nil
}
