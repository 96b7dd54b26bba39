package middleware

import (
	"errors"
	"net/http"
	"strings"

	"iot-device-manager/internal/logger"
	appErrors "iot-device-manager/pkg/errors"
	"iot-device-manager/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextRole     = "role"

	unauthorizedMessage = "Invalid or expired token"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*utils.Claims, error)
}

// AuthMiddleware requires a valid bearer token. Expired and invalid tokens get the
// same response; only the log line tells them apart.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := verifier.VerifyToken(strings.TrimSpace(parts[1]))
		if err != nil {
			kind := "invalid"
			if errors.Is(err, appErrors.ErrTokenExpired) {
				kind = "expired"
			}
			logger.WithRequestID(GetRequestID(c)).Warn("Rejected bearer token",
				zap.String("kind", kind),
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			utils.ErrorResponse(c, http.StatusUnauthorized, unauthorizedMessage)
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// GetUserID returns the authenticated user's id set by AuthMiddleware.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
