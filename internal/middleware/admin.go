package middleware

import (
	"net/http"

	"seragon/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired checks that the authenticated user has the admin role.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
