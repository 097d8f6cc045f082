// Package database opens the configured storage driver.
package database

import (
	"context"
	"fmt"

	"lab-checkout/internal/config"
	"lab-checkout/internal/domain/device"
	"lab-checkout/internal/domain/user"
	"lab-checkout/internal/infrastructure/database/memory"
	"lab-checkout/internal/infrastructure/database/postgres"
	"lab-checkout/internal/logger"

	"go.uber.org/zap"
)

// Repositories is one repository per collection, backed by a single driver.
type Repositories struct {
	Devices     device.Repository
	Logins      device.LoginRepository
	History     device.HistoryRepository
	Users       user.Repository
	ResetTokens user.ResetTokenRepository

	// Sessions is set only by the memory driver; the postgres driver keeps
	// sessions in redis.
	Sessions user.SessionStore

	health func(ctx context.Context) error
	close  func() error
}

// Open connects to the driver named by cfg.Database.Driver and, for
// postgres, migrates the schema.
func Open(cfg *config.Config) (*Repositories, error) {
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("Using in-memory storage; data is lost on restart",
			zap.String("driver", cfg.Database.Driver),
		)
		store := memory.NewStore()
		return &Repositories{
			Devices:     store.Devices,
			Logins:      store.Logins,
			History:     store.History,
			Users:       store.Users,
			ResetTokens: store.ResetTokens,
			Sessions:    store.Sessions,
			health:      func(context.Context) error { return nil },
			close:       func() error { return nil },
		}, nil
	case "postgres":
		db, err := postgres.NewDB(cfg)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Repositories{
			Devices:     postgres.NewDeviceRepository(db),
			Logins:      postgres.NewLoginRepository(db),
			History:     postgres.NewHistoryRepository(db),
			Users:       postgres.NewUserRepository(db),
			ResetTokens: postgres.NewResetTokenRepository(db),
			health:      func(context.Context) error { return db.Health() },
			close:       db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Database.Driver)
	}
}

func (r *Repositories) Health(ctx context.Context) error {
	return r.health(ctx)
}

func (r *Repositories) Close() error {
	return r.close()
}
