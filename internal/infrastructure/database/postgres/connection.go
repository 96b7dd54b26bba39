package postgres

import (
	"context"
	"fmt"
	"time"

	"iot-device-manager/internal/config"
	"iot-device-manager/internal/infrastructure/database/postgres/models"
	"iot-device-manager/internal/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

type DB struct {
	*gorm.DB
}

// NewDB opens the pool and pings it, retrying with a fixed delay up to
// cfg.Database.ConnectRetries extra attempts.
func NewDB(cfg *config.Config) (*DB, error) {
	attempts := cfg.Database.ConnectRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := open(cfg)
		if err == nil {
			logger.Info("Database connection established",
				zap.String("target", cfg.Database.Redacted()),
				zap.Int("attempt", attempt),
				zap.Int("max_open_connections", maxOpenConns),
				zap.Int("max_idle_connections", maxIdleConns),
			)
			return db, nil
		}
		lastErr = err

		logger.Error("Failed to connect to database",
			zap.String("target", cfg.Database.Redacted()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)
		if attempt < attempts {
			time.Sleep(cfg.Database.RetryDelay)
		}
	}

	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, lastErr)
}

func open(cfg *config.Config) (*DB, error) {
	var gormLogLevel gormLogger.LogLevel
	if cfg.Server.Environment == "production" {
		gormLogLevel = gormLogger.Warn
	} else {
		gormLogLevel = gormLogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate creates or updates the devices and users tables and their indexes.
func (d *DB) Migrate() error {
	if err := d.DB.AutoMigrate(&models.DeviceModel{}, &models.UserModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Watch pings the pool every interval until ctx is done, logging transitions
// between reachable and unreachable.
func (d *DB) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval)
			err := d.PingContext(pingCtx)
			cancel()

			switch {
			case err != nil && healthy:
				healthy = false
				logger.Warn("Database disconnected, retrying", zap.Error(err))
			case err != nil:
				logger.Debug("Database still unreachable", zap.Error(err))
			case !healthy:
				healthy = true
				logger.Info("Database reconnected")
			}
		}
	}
}

func (d *DB) PingContext(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
