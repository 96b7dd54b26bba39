package utils

import (
	appErrors "iot-device-manager/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint writes.
type Response struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Message string                 `json:"message,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Errors  []appErrors.FieldError `json:"errors,omitempty"`
}

func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
		Message: message,
	})
}

func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Success: false,
		Message: message,
	})
}

// AppErrorResponse writes an AppError including its machine-readable code and field details.
func AppErrorResponse(c *gin.Context, appErr *appErrors.AppError) {
	c.JSON(appErr.Status, Response{
		Success: false,
		Message: appErr.Message,
		Code:    appErr.Code,
		Errors:  appErr.Details,
	})
}
