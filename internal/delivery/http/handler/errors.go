package handler

import (
	"errors"
	"net/http"

	domainDevice "iot-device-manager/internal/domain/device"
	domainUser "iot-device-manager/internal/domain/user"
	"iot-device-manager/internal/logger"
	"iot-device-manager/internal/middleware"
	appErrors "iot-device-manager/pkg/errors"
	"iot-device-manager/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgDeviceNotFound = "Device not found"
	msgInvalidBody    = "Invalid request body"
	msgInvalidQuery   = "Invalid query parameters"
)

// respondWithError is the single place errors become HTTP responses.
func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domainDevice.ErrDeviceNotFound):
		utils.AppErrorResponse(c, appErrors.NewAppError(appErrors.CodeNotFound, msgDeviceNotFound, err))
	case errors.Is(err, domainDevice.ErrDeviceAlreadyExists):
		utils.AppErrorResponse(c, appErrors.NewAppError(appErrors.CodeConflict, "Device with this deviceId already exists", err))
	case errors.Is(err, domainDevice.ErrEmptyBatch):
		utils.AppErrorResponse(c, appErrors.NewAppError(appErrors.CodeValidation, "Batch contains no devices", err))
	case errors.Is(err, domainUser.ErrUserAlreadyExists):
		utils.AppErrorResponse(c, appErrors.NewAppError(appErrors.CodeConflict, "Username already exists", err))
	case errors.Is(err, domainUser.ErrEmailAlreadyExists):
		utils.AppErrorResponse(c, appErrors.NewAppError(appErrors.CodeConflict, "Email already exists", err))
	case errors.Is(err, domainUser.ErrUserNotFound):
		utils.AppErrorResponse(c, appErrors.NewAppError(appErrors.CodeNotFound, "User not found", err))
	case errors.Is(err, domainUser.ErrInvalidUserRole):
		utils.AppErrorResponse(c, appErrors.NewAppError(appErrors.CodeValidation, "Invalid user role", err))
	case errors.Is(err, appErrors.ErrInvalidCredentials):
		utils.AppErrorResponse(c, appErrors.NewAppError(appErrors.CodeUnauthorized, "Invalid username or password", err))
	case errors.Is(err, appErrors.ErrTokenExpired),
		errors.Is(err, appErrors.ErrTokenInvalid):
		utils.AppErrorResponse(c, appErrors.NewAppError(appErrors.CodeUnauthorized, "Invalid or expired token", err))
	case errors.Is(err, appErrors.ErrInsufficientPermissions):
		utils.AppErrorResponse(c, appErrors.NewAppError(appErrors.CodeForbidden, "Insufficient permissions", err))
	default:
		var appErr *appErrors.AppError
		if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
			utils.AppErrorResponse(c, appErr)
			return
		}

		logger.WithRequestID(middleware.GetRequestID(c)).Error("Internal server error",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		_ = c.Error(err)
		utils.AppErrorResponse(c, appErrors.NewAppError(appErrors.CodeInternal, "Internal server error", nil))
	}
}

// respondBindError reports a body or query that could not be decoded.
func respondBindError(c *gin.Context, message string, err error) {
	utils.AppErrorResponse(c, appErrors.NewAppError(appErrors.CodeValidation, message, err))
}
