package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainDevice "iot-device-manager/internal/domain/device"
	domainUser "iot-device-manager/internal/domain/user"
	appErrors "iot-device-manager/pkg/errors"
	"iot-device-manager/pkg/utils"

	"github.com/gin-gonic/gin"
)

func TestRespondWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"device not found", domainDevice.ErrDeviceNotFound, http.StatusNotFound, "Device not found"},
		{"wrapped not found", fmt.Errorf("lookup: %w", domainDevice.ErrDeviceNotFound), http.StatusNotFound, "Device not found"},
		{"duplicate device", domainDevice.ErrDeviceAlreadyExists, http.StatusConflict, "Device with this deviceId already exists"},
		{"duplicate user", domainUser.ErrUserAlreadyExists, http.StatusConflict, "Username already exists"},
		{"duplicate email", domainUser.ErrEmailAlreadyExists, http.StatusConflict, "Email already exists"},
		{"bad credentials", appErrors.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
		{"expired token", appErrors.ErrTokenExpired, http.StatusUnauthorized, "Invalid or expired token"},
		{"validation", appErrors.NewValidationError("Validation failed", []appErrors.FieldError{{Field: "deviceId", Tag: "required"}}), http.StatusBadRequest, "Validation failed"},
		{"unexpected", errors.New("pq: connection reset"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/devices/x", nil)

			respondWithError(c, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var resp utils.Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Success {
				t.Error("success = true on error response")
			}
			if resp.Message != tt.message {
				t.Errorf("message = %q, want %q", resp.Message, tt.message)
			}
		})
	}
}

func TestRespondWithErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondWithError(c, errors.New("relation \"devices\" does not exist"))

	if body := w.Body.String(); strings.Contains(body, "relation") {
		t.Errorf("internal error leaked into body: %s", body)
	}
}
