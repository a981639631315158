package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Auditor records free-form audit events.
type Auditor interface {
	Audit(ctx context.Context, level, text string, userID *int64)
}

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router gin.IRoutes, auditor Auditor, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if auditor == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		auditor.Audit(c.Request.Context(), "INFO", "audit test", userIDFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
