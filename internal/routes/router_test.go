package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"iot-device-manager/internal/config"
	"iot-device-manager/internal/export"
	"iot-device-manager/internal/infrastructure/database/memory"
	"iot-device-manager/internal/usecase/device"
	"iot-device-manager/internal/usecase/user"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field string `json:"field"`
		Tag   string `json:"tag"`
	} `json:"errors"`
}

type failingPing struct{}

func (failingPing) PingContext(context.Context) error { return errors.New("connection refused") }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpiresIn: time.Hour},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		},
	}
}

func newTestRouter(t *testing.T, health HealthChecker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	deps := Dependencies{
		DeviceService: device.NewService(memory.NewDeviceRepository(), nil),
		UserService:   user.NewService(memory.NewUserRepository(), cfg.JWT),
		Health:        health,
	}
	return SetupRoutes(context.Background(), cfg, deps)
}

func do(t *testing.T, router http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s response: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w, env
}

func registerToken(t *testing.T, router http.Handler, username string) string {
	t.Helper()

	w, env := do(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}

	var auth struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &auth); err != nil || auth.Token == "" {
		t.Fatalf("register returned no token: %v", err)
	}
	return auth.Token
}

func TestDevicesRequireBearerToken(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Authorization header required"},
		{"wrong scheme", "Basic abc", "Invalid authorization header format"},
		{"garbage token", "Bearer not-a-jwt", "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			var env envelope
			_ = json.Unmarshal(w.Body.Bytes(), &env)
			if env.Success || env.Message != tt.want {
				t.Errorf("envelope = %+v, want message %q", env, tt.want)
			}
		})
	}
}

func TestDeviceLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t, nil)
	token := registerToken(t, router, "operator1")

	w, env := do(t, router, http.MethodPost, "/api/devices", token, map[string]interface{}{
		"deviceId": "sensor-100",
		"name":     "Boiler probe",
		"type":     "sensor",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created device.DeviceResponse
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode created device: %v", err)
	}
	if created.Status != "offline" {
		t.Errorf("default status = %q, want offline", created.Status)
	}

	w, env = do(t, router, http.MethodGet, "/api/devices/sensor-100", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get by deviceId status = %d", w.Code)
	}

	w, _ = do(t, router, http.MethodGet, "/api/devices/"+created.ID.String(), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get by id status = %d", w.Code)
	}

	w, env = do(t, router, http.MethodPatch, "/api/devices/sensor-100/status", token, map[string]string{"status": "online"})
	if w.Code != http.StatusOK {
		t.Fatalf("set status = %d, body = %s", w.Code, w.Body.String())
	}
	var online device.DeviceResponse
	_ = json.Unmarshal(env.Data, &online)
	if online.LastOnlineTime == nil {
		t.Error("lastOnlineTime not set after going online")
	}

	w, env = do(t, router, http.MethodGet, "/api/devices?status=online", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list device.DeviceListResponse
	_ = json.Unmarshal(env.Data, &list)
	if list.Total != 1 || list.Page != 1 || list.Limit != 10 {
		t.Errorf("list = total %d page %d limit %d", list.Total, list.Page, list.Limit)
	}

	w, _ = do(t, router, http.MethodDelete, "/api/devices/sensor-100", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}

	w, env = do(t, router, http.MethodDelete, "/api/devices/sensor-100", token, nil)
	if w.Code != http.StatusNotFound || env.Message != "Device not found" {
		t.Errorf("second delete = %d %q, want 404 Device not found", w.Code, env.Message)
	}
}

func TestUnknownDeviceIsNotFound(t *testing.T) {
	router := newTestRouter(t, nil)
	token := registerToken(t, router, "viewer1")

	for _, path := range []string{
		"/api/devices/missing-device",
		"/api/devices/3f2504e0-4f89-11d3-9a0c-0305e82c3301",
	} {
		w, env := do(t, router, http.MethodGet, path, token, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, w.Code)
		}
		if env.Success || env.Message != "Device not found" {
			t.Errorf("GET %s envelope = %+v", path, env)
		}
	}
}

func TestValidationEnvelope(t *testing.T) {
	router := newTestRouter(t, nil)
	token := registerToken(t, router, "operator2")

	w, env := do(t, router, http.MethodPost, "/api/devices", token, map[string]interface{}{
		"deviceId": "bad id!",
		"type":     "toaster",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if env.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", env.Code)
	}

	fields := map[string]bool{}
	for _, e := range env.Errors {
		fields[e.Field] = true
	}
	for _, want := range []string{"deviceId", "type"} {
		if !fields[want] {
			t.Errorf("errors missing field %q: %+v", want, env.Errors)
		}
	}

	w, env = do(t, router, http.MethodGet, "/api/devices?limit=500", token, nil)
	if w.Code != http.StatusBadRequest || env.Code != "VALIDATION_ERROR" {
		t.Errorf("limit=500 = %d %q, want 400 VALIDATION_ERROR", w.Code, env.Code)
	}
}

func TestDuplicateDeviceConflict(t *testing.T) {
	router := newTestRouter(t, nil)
	token := registerToken(t, router, "operator3")

	body := map[string]string{"deviceId": "gw-1"}
	if w, _ := do(t, router, http.MethodPost, "/api/devices", token, body); w.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", w.Code)
	}
	w, env := do(t, router, http.MethodPost, "/api/devices", token, body)
	if w.Code != http.StatusConflict || env.Code != "CONFLICT" {
		t.Errorf("duplicate = %d %q, want 409 CONFLICT", w.Code, env.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t, nil)
	registerToken(t, router, "alice")

	w, env := do(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
		"password": "another1",
	})
	if w.Code != http.StatusConflict || env.Message != "Username already exists" {
		t.Errorf("duplicate register = %d %q", w.Code, env.Message)
	}

	w, env = do(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized || env.Message != "Invalid username or password" {
		t.Errorf("bad login = %d %q", w.Code, env.Message)
	}

	w, env = do(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d", w.Code)
	}
	var auth user.AuthResponse
	if err := json.Unmarshal(env.Data, &auth); err != nil {
		t.Fatalf("decode auth: %v", err)
	}

	w, env = do(t, router, http.MethodGet, "/api/auth/me", auth.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}
	var me user.UserResponse
	_ = json.Unmarshal(env.Data, &me)
	if me.Username != "alice" || me.Role != "user" {
		t.Errorf("me = %+v", me)
	}

	w, _ = do(t, router, http.MethodGet, "/api/admin/users", auth.Token, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("admin route for regular user = %d, want 403", w.Code)
	}
}

func TestExportFormats(t *testing.T) {
	router := newTestRouter(t, nil)
	token := registerToken(t, router, "reporter")

	do(t, router, http.MethodPost, "/api/devices", token, map[string]string{"deviceId": "cam-1", "type": "camera"})

	tests := []struct {
		format      string
		status      int
		contentType string
	}{
		{"xlsx", http.StatusOK, export.ContentTypeXLSX},
		{"pdf", http.StatusOK, export.ContentTypePDF},
		{"csv", http.StatusBadRequest, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w, _ := do(t, router, http.MethodGet, "/api/devices/export?format="+tt.format, token, nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, tt.contentType) {
				t.Errorf("content type = %q, want %q", got, tt.contentType)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	w, _ := do(t, newTestRouter(t, nil), http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("healthy store status = %d", w.Code)
	}

	w, _ = do(t, newTestRouter(t, failingPing{}), http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("failing store status = %d, want 503", w.Code)
	}
}
