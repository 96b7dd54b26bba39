package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iot-device-manager/internal/config"
	domainDevice "iot-device-manager/internal/domain/device"
	"iot-device-manager/internal/events"
	"iot-device-manager/internal/infrastructure/database"
	"iot-device-manager/internal/ingestion"
	"iot-device-manager/internal/logger"
	"iot-device-manager/internal/routes"
	"iot-device-manager/internal/usecase/device"
	"iot-device-manager/internal/usecase/user"
	pkgmqtt "iot-device-manager/pkg/mqtt"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env, cfg.Log.Level, cfg.Log.File); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
		zap.String("store", cfg.Store.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	var publisher domainDevice.EventPublisher = events.Noop{}
	var mqttClient *pkgmqtt.Client
	if cfg.MQTT.Enabled() {
		mqttCfg := pkgmqtt.DefaultConfig(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		mqttCfg.Username = cfg.MQTT.Username
		mqttCfg.Password = cfg.MQTT.Password

		mqttClient = pkgmqtt.NewClient(mqttCfg)
		if err := mqttClient.Connect(); err != nil {
			// Auto-reconnect only covers established sessions.
			logger.Error("MQTT unavailable, device events disabled", zap.Error(err))
			mqttClient = nil
		} else {
			publisher = events.NewMQTTPublisher(mqttClient, cfg.MQTT.EventTopic, byte(cfg.MQTT.QoS))
		}
	}

	deviceService := device.NewService(store.Devices, publisher)
	userService := user.NewService(store.Users, cfg.JWT)

	var statusListener *ingestion.StatusListener
	if mqttClient != nil {
		processor := ingestion.NewProcessor(deviceService, ingestion.DefaultWorkerCount, ingestion.DefaultBufferSize)
		statusListener, err = ingestion.NewStatusListener(mqttClient, processor, cfg.MQTT.StatusTopic, byte(cfg.MQTT.QoS))
		if err == nil {
			err = statusListener.Start()
		}
		if err != nil {
			logger.Error("Status ingestion disabled", zap.Error(err))
			statusListener = nil
		}
	}

	router := routes.SetupRoutes(ctx, cfg, routes.Dependencies{
		DeviceService: deviceService,
		UserService:   userService,
		Health:        store,
	})

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "3000"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown Server ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
	}

	if statusListener != nil {
		statusListener.Stop()
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}

	logger.Info("Server exited properly")
}
