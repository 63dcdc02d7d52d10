package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldserve/tool-custody/internal/models"
)

// RequireAdmin gates tenant-admin mutations (checklist catalog, tool CRUD,
// user management). Must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ContextUserRole)
		if role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_only"})
			return
		}
		c.Next()
	}
}
