package store

import (
	"fmt"
	"time"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DBTypePgsql  = "pgsql"
	DBTypeSqlite = "sqlite"

	slowQueryThreshold = time.Second
)

// InitDB opens the record database selected by DB_TYPE. Anything but pgsql is
// treated as a sqlite file named by DB_NAME.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	log := zap.S().Named("gorm")

	dialector, pgsql := dialectorFor(cfg)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(logrus.New(), logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		}),
		// maps unique violations to gorm.ErrDuplicatedKey for translate
		TranslateError: true,
	})
	if err != nil {
		log.Errorw("failed to connect database", "type", cfg.Database.Type, "error", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("configuring connection pool: %w", err)
	}

	if !pgsql {
		// one writer at a time, concurrent writers would fail with SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
		log.Infow("using sqlite record store", "file", cfg.Database.Name)
		return db, nil
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	var version string
	if err := db.Raw("SELECT version()").Scan(&version).Error; err != nil {
		return nil, fmt.Errorf("reading postgres version: %w", err)
	}
	log.Infow("using postgres record store", "version", version)

	return db, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, bool) {
	if cfg.Database.Type == DBTypePgsql {
		return postgres.Open(PostgresDSN(cfg)), true
	}
	return sqlite.Open(cfg.Database.Name), false
}

// PostgresDSN is shared by gorm and the pgx pool used by the job queue.
func PostgresDSN(cfg *config.Config) string {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s",
		cfg.Database.Hostname,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
	)
	if cfg.Database.Name != "" {
		dsn += " dbname=" + cfg.Database.Name
	}
	return dsn
}
