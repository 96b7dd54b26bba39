// Package database selects and opens the configured device and user store.
package database

import (
	"context"
	"fmt"

	"iot-device-manager/internal/config"
	domainDevice "iot-device-manager/internal/domain/device"
	domainUser "iot-device-manager/internal/domain/user"
	"iot-device-manager/internal/infrastructure/database/memory"
	"iot-device-manager/internal/infrastructure/database/postgres"
	"iot-device-manager/internal/logger"
	"iot-device-manager/internal/metrics"

	"go.uber.org/zap"
)

// Store bundles the repositories of one backend.
type Store struct {
	Devices domainDevice.Repository
	Users   domainUser.Repository

	db *postgres.DB
}

// Open connects the configured backend. For postgres it migrates the schema and
// starts a connection watcher that runs until ctx is done.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory store; data is lost on exit")
		metrics.Init(nil)
		return &Store{
			Devices: memory.NewDeviceRepository(),
			Users:   memory.NewUserRepository(),
		}, nil

	case config.StoreDriverPostgres:
		db, err := postgres.NewDB(cfg)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}

		if sqlDB, err := db.DB.DB(); err == nil {
			metrics.Init(sqlDB)
		} else {
			logger.Warn("Database pool metrics unavailable", zap.Error(err))
			metrics.Init(nil)
		}

		go db.Watch(ctx, cfg.Database.RetryDelay)

		return &Store{
			Devices: postgres.NewDeviceRepository(db),
			Users:   postgres.NewUserRepository(db),
			db:      db,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// PingContext reports store liveness. The in-memory store is always up.
func (s *Store) PingContext(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
