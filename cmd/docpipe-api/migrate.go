package main

import (
	"context"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/store"
	"github.com/docpipe/docpipe/pkg/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db and the job queue schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		cleanup := setupLogging(cfg)
		defer cleanup()

		zap.S().Info("starting migrations")
		defer zap.S().Info("db migrated")

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if cfg.Service.MigrationFolder == "" {
			zap.S().Info("no migration folder set, creating tables from the models")
			return s.InitialMigration(context.Background())
		}

		var pool *pgxpool.Pool
		if cfg.Database.Type == store.DBTypePgsql {
			pool, err = pgxpool.New(context.Background(), store.PostgresDSN(cfg))
			if err != nil {
				zap.S().Fatalw("creating pgx pool", "error", err)
			}
			defer pool.Close()
		}

		if err := migrations.MigrateStore(db, cfg, pool); err != nil {
			zap.S().Fatalw("running migrations", "error", err)
		}

		return nil
	},
}
