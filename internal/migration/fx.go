package migration

import (
	"github.com/opsbill/tarifa/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// sqlite is a dev and test convenience; its schema comes from
		// AutoMigrate there.
		if cfg.DBType == "sqlite" {
			return conn.AutoMigrate(Models()...)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB, cfg.DBType)
	}),
)
