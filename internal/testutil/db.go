package testutil

import (
	"context"
	"os"
	"path/filepath"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/store"
	"gorm.io/gorm"
)

// NewSqliteStore opens a file backed sqlite database under dir and creates the schema.
func NewSqliteStore(dir string) (store.Store, *gorm.DB, error) {
	cfg := config.NewDefault()
	cfg.Database.Type = store.DBTypeSqlite
	cfg.Database.Name = filepath.Join(dir, "docpipe.db")

	db, err := store.InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	s := store.NewStore(db)
	if err := s.InitialMigration(context.Background()); err != nil {
		return nil, nil, err
	}
	return s, db, nil
}

// MkdirTemp wraps os.MkdirTemp with the repository prefix.
func MkdirTemp() (string, error) {
	return os.MkdirTemp("", "docpipe-test-")
}
