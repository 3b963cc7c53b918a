package migrations

import (
	"context"
	"fmt"
	"os"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MigrateStore applies the goose migrations found in the configured folder.
// When pgxPool is set the job queue schema is migrated as well.
func MigrateStore(db *gorm.DB, cfg *config.Config, pgxPool *pgxpool.Pool) error {
	goose.SetLogger(&logger{})

	folder := cfg.Service.MigrationFolder
	fi, err := os.Stat(folder)
	if err != nil {
		return err
	}

	if !fi.Mode().IsDir() {
		return fmt.Errorf("failed to open migration folder: %s is not a folder", folder)
	}

	goose.SetBaseFS(os.DirFS(folder))

	if err := goose.SetDialect(dialect(cfg)); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if err := goose.Up(sqlDB, "."); err != nil {
		return err
	}

	if pgxPool == nil {
		return nil
	}

	if err := migrateRiver(pgxPool); err != nil {
		return fmt.Errorf("river migrations: %w", err)
	}

	return nil
}

func dialect(cfg *config.Config) string {
	if cfg.Database.Type == store.DBTypePgsql {
		return "postgres"
	}
	return "sqlite3"
}

func migrateRiver(pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return err
	}
	res, err := migrator.Migrate(context.Background(), rivermigrate.DirectionUp, nil)
	if err != nil {
		return err
	}
	for _, v := range res.Versions {
		zap.S().Named("migrations").Infof("river migration applied: %d", v.Version)
	}
	return nil
}

// logger adapts zap to goose.Logger.
type logger struct{}

func (m *logger) Printf(format string, v ...interface{}) { zap.S().Infof(format, v...) }
func (m *logger) Fatalf(format string, v ...interface{}) { zap.S().Fatalf(format, v...) }
