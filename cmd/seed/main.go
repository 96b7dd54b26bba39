package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iot-device-manager/internal/config"
	domainUser "iot-device-manager/internal/domain/user"
	"iot-device-manager/internal/events"
	"iot-device-manager/internal/infrastructure/database"
	"iot-device-manager/internal/logger"
	"iot-device-manager/internal/usecase/device"
	"iot-device-manager/internal/usecase/user"

	"go.uber.org/zap"
)

const batchSize = 1000

type seedConfig struct {
	count         int
	wipe          bool
	seed          uint64
	adminUser     string
	adminPassword string
}

func parseFlags() seedConfig {
	var cfg seedConfig
	flag.IntVar(&cfg.count, "count", 100000, "number of devices to generate")
	flag.BoolVar(&cfg.wipe, "wipe", true, "delete every existing device first")
	flag.Uint64Var(&cfg.seed, "seed", uint64(time.Now().UnixNano()), "random seed")
	flag.StringVar(&cfg.adminUser, "admin-user", "", "also create an admin account with this username")
	flag.StringVar(&cfg.adminPassword, "admin-password", "", "password for -admin-user")
	flag.Parse()
	return cfg
}

func main() {
	seedCfg := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(cfg.Server.Environment, cfg.Log.Level, cfg.Log.File); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if seedCfg.count <= 0 {
		logger.Fatal("count must be > 0", zap.Int("count", seedCfg.count))
	}
	if cfg.Store.Driver != config.StoreDriverPostgres {
		logger.Fatal("Seeding needs a persistent store", zap.String("store", cfg.Store.Driver))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	if seedCfg.adminUser != "" {
		if err := createAdmin(ctx, user.NewService(store.Users, cfg.JWT), seedCfg); err != nil {
			logger.Fatal("Failed to create admin", zap.Error(err))
		}
	}

	if seedCfg.wipe {
		removed, err := store.Devices.DeleteAll(ctx)
		if err != nil {
			logger.Fatal("Failed to wipe devices", zap.Error(err))
		}
		logger.Info("Existing devices removed", zap.Int64("count", removed))
	}

	service := device.NewService(store.Devices, events.Noop{})
	gen := newGenerator(seedCfg.seed, time.Now())
	start := time.Now()

	for offset := 0; offset < seedCfg.count; offset += batchSize {
		n := min(batchSize, seedCfg.count-offset)

		req := &device.BatchCreateRequest{Devices: make([]device.CreateDeviceRequest, n)}
		for j := 0; j < n; j++ {
			req.Devices[j] = gen.device(offset + j + 1)
		}

		if _, err := service.CreateBatch(ctx, req); err != nil {
			logger.Fatal("Failed to insert batch", zap.Int("offset", offset), zap.Error(err))
		}
		logger.Info("Devices generated",
			zap.Int("done", offset+n),
			zap.Int("total", seedCfg.count),
		)
	}

	logger.Info("Seeding complete",
		zap.Int("devices", seedCfg.count),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func createAdmin(ctx context.Context, users *user.Service, cfg seedConfig) error {
	if cfg.adminPassword == "" {
		return errors.New("-admin-password is required with -admin-user")
	}

	admin, err := users.CreateUser(ctx, cfg.adminUser, cfg.adminPassword, nil, domainUser.RoleAdmin)
	if errors.Is(err, domainUser.ErrUserAlreadyExists) {
		logger.Info("Admin already exists", zap.String("username", cfg.adminUser))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("Admin created", zap.String("username", admin.Username))
	return nil
}
