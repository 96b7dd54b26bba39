package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domainUser "iot-device-manager/internal/domain/user"
	"iot-device-manager/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type secretVerifier string

func (s secretVerifier) VerifyToken(token string) (*utils.Claims, error) {
	return utils.ValidateToken(token, string(s))
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	valid, _, err := utils.GenerateToken(userID, "alice", "user", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	expired, _, _ := utils.GenerateToken(userID, "alice", "user", testSecret, -time.Minute)
	foreign, _, _ := utils.GenerateToken(userID, "alice", "user", "other-secret", time.Hour)

	r := gin.New()
	r.GET("/me", AuthMiddleware(secretVerifier(testSecret)), func(c *gin.Context) {
		id, ok := GetUserID(c)
		if !ok || id != userID {
			c.Status(http.StatusTeapot)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
		{"no token", "Bearer ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if w := serve(r, req); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAuthMiddlewareSameMessageForExpiredAndInvalid(t *testing.T) {
	expired, _, _ := utils.GenerateToken(uuid.New(), "bob", "user", testSecret, -time.Minute)

	r := gin.New()
	r.GET("/x", AuthMiddleware(secretVerifier(testSecret)), func(c *gin.Context) { c.Status(http.StatusOK) })

	bodies := make([]string, 0, 2)
	for _, token := range []string{expired, "garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		bodies = append(bodies, serve(r, req).Body.String())
	}
	if bodies[0] != bodies[1] {
		t.Errorf("responses differ:\n%s\n%s", bodies[0], bodies[1])
	}
}

func TestRoleMiddleware(t *testing.T) {
	tests := []struct {
		name string
		role interface{}
		want int
	}{
		{"admin", string(domainUser.RoleAdmin), http.StatusOK},
		{"user", string(domainUser.RoleUser), http.StatusForbidden},
		{"missing", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/admin", func(c *gin.Context) {
				if tt.role != nil {
					c.Set(ContextRole, tt.role)
				}
				c.Next()
			}, AdminOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })

			if w := serve(r, httptest.NewRequest(http.MethodGet, "/admin", nil)); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRateLimiterAllow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 1, 2)
	now := time.Now()

	for i := 0; i < 2; i++ {
		if ok, _ := rl.allow("10.0.0.1", now); !ok {
			t.Fatalf("request %d within burst rejected", i+1)
		}
	}
	ok, retry := rl.allow("10.0.0.1", now)
	if ok {
		t.Fatal("request beyond burst allowed")
	}
	if retry <= 0 || retry > time.Second {
		t.Errorf("retry after = %v, want (0, 1s]", retry)
	}

	if ok, _ := rl.allow("10.0.0.2", now); !ok {
		t.Error("other client throttled")
	}
	if ok, _ := rl.allow("10.0.0.1", now.Add(time.Second)); !ok {
		t.Error("bucket did not refill")
	}
}

func TestRateLimiterEvictIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 5, 5)
	now := time.Now()
	rl.allow("idle", now)
	rl.allow("active", now.Add(limiterIdleTTL))

	rl.evictIdle(now.Add(limiterIdleTTL + time.Second))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.limiters["idle"]; ok {
		t.Error("idle client not evicted")
	}
	if _, ok := rl.limiters["active"]; !ok {
		t.Error("active client evicted")
	}
}

func TestRateLimitMiddlewareSetsRetryAfter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.Use(RateLimitMiddleware(NewRateLimiter(ctx, 0.5, 1)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil)); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w.Code)
	}
	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	w := serve(r, req)
	if w.Body.String() != "trace-123" || w.Header().Get(RequestIDHeader) != "trace-123" {
		t.Errorf("caller id not reused: body %q header %q", w.Body.String(), w.Header().Get(RequestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
	w = serve(r, req)
	if _, err := uuid.Parse(w.Body.String()); err != nil {
		t.Errorf("oversized id not replaced: %q", w.Body.String())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.GET("/boom", func(c *gin.Context) { panic("secret detail") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret detail") {
		t.Error("panic value leaked into response")
	}
	if !strings.Contains(w.Body.String(), "Internal server error") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimitMiddleware(16))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 32)))
	if w := serve(r, req); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}
