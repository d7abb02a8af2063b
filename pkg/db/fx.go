package db

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/brightleaf/glsync/internal/config"
	"github.com/brightleaf/glsync/internal/observability/logger"
)

// Module provides a *gorm.DB configured from config.Config, wired into the
// fx lifecycle so the pool is closed on shutdown.
var Module = fx.Module("db",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)

// New opens a gorm.DB using the dialect selected by cfg.DBType and applies
// the configured connection pool limits.
func New(cfg config.Config) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(logger.DefaultGormLoggerConfig()),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConn)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	return gdb, nil
}

func registerHooks(lc fx.Lifecycle, gdb *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
}
