package middleware

import (
	"fmt"
	"net/http"

	"iot-device-manager/internal/logger"
	"iot-device-manager/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a panic into a 500 envelope without leaking the panic value.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.WithRequestID(GetRequestID(c)).Error("Panic recovered",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("panic", fmt.Sprint(recovered)),
			zap.Stack("stack"),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
		c.Abort()
	})
}
