package migration

import (
	"github.com/smallbiznis/campusswap/internal/config"
	"github.com/smallbiznis/campusswap/internal/seed"
	"github.com/smallbiznis/campusswap/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.DBAutoMigrate {
			if err := Apply(conn, cfg.DBType); err != nil {
				return err
			}
		} else {
			log.Info("database auto-migrate disabled")
		}

		if cfg.SeedFixtures {
			log.Info("seeding harness fixtures")
			return seed.EnsureHarnessFixtures(conn)
		}
		return nil
	}),
)

// Apply runs golang-migrate on postgres and the plain schema elsewhere.
func Apply(conn *gorm.DB, dbType string) error {
	if dbType != db.TypePostgres {
		return ApplySchema(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}
