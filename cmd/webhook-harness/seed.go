package main

import (
	"fmt"

	"github.com/smallbiznis/campusswap/internal/config"
	"github.com/smallbiznis/campusswap/internal/migration"
	"github.com/smallbiznis/campusswap/internal/seed"
	"github.com/smallbiznis/campusswap/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and the orders the run scenarios pay for, using DATABASE_* settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to seed harness fixtures in production")
			}

			log, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer log.Sync()

			dbCfg := db.FromAppConfig(cfg)
			dbCfg.Instrument = false
			conn, err := db.Open(nil, dbCfg, log)
			if err != nil {
				return err
			}
			if sqlDB, err := conn.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := migration.Apply(conn, cfg.DBType); err != nil {
				return err
			}
			if err := seed.EnsureHarnessFixtures(conn); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s and %s\n", seed.HarnessSuccessOrderID, seed.HarnessFailedOrderID)
			return nil
		},
	}
}
