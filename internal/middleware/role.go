package middleware

import (
	"net/http"

	domainUser "iot-device-manager/internal/domain/user"
	"iot-device-manager/pkg/utils"

	"github.com/gin-gonic/gin"
)

func RoleMiddleware(allowedRoles ...domainUser.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ContextRole)
		userRole, isString := role.(string)
		if !ok || !isString {
			utils.ErrorResponse(c, http.StatusForbidden, "Role not found in context")
			c.Abort()
			return
		}

		for _, allowedRole := range allowedRoles {
			if domainUser.Role(userRole) == allowedRole {
				c.Next()
				return
			}
		}

		utils.ErrorResponse(c, http.StatusForbidden, "Insufficient permissions")
		c.Abort()
	}
}

func AdminOnly() gin.HandlerFunc {
	return RoleMiddleware(domainUser.RoleAdmin)
}
