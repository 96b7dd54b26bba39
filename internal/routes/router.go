package routes

import (
	"context"
	"net/http"
	"time"

	"iot-device-manager/internal/config"
	"iot-device-manager/internal/delivery/http/handler"
	"iot-device-manager/internal/logger"
	"iot-device-manager/internal/middleware"
	"iot-device-manager/internal/usecase/device"
	"iot-device-manager/internal/usecase/user"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// HealthChecker is the store's liveness probe.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// Dependencies are the services the HTTP surface is built on. Health may be nil
// for stores that are always available.
type Dependencies struct {
	DeviceService *device.Service
	UserService   *user.Service
	Health        HealthChecker
}

// SetupRoutes builds the engine. ctx bounds background work owned by the
// middleware chain, such as rate limiter eviction.
func SetupRoutes(ctx context.Context, cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Order: recovery, request ID, logging, metrics, security headers, CORS, request size limit, rate limit
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	if cfg.RateLimit.GeneralRPS > 0 {
		limiter := middleware.NewRateLimiter(ctx, cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst)
		router.Use(middleware.RateLimitMiddleware(limiter))
	}

	router.GET("/health", healthHandler(deps.Health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	userHandler := handler.NewUserHandler(deps.UserService)
	deviceHandler := handler.NewDeviceHandler(deps.DeviceService)

	api := router.Group("/api")
	{
		userHandler.RegisterRoutes(api)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(deps.UserService))
		{
			userHandler.RegisterProfileRoutes(protected)
			deviceHandler.RegisterRoutes(protected)

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				userHandler.RegisterAdminRoutes(admin)
			}
		}
	}

	logger.Info("All routes initialized", zap.Int("routes", len(router.Routes())))
	return router
}

func healthHandler(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()

			if err := checker.PingContext(ctx); err != nil {
				logger.Warn("Health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"message": "Database connection failed",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	}
}
