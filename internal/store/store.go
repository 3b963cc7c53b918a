package store

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Document() Document
	Conversion() Conversion
	Metadata() Metadata
	InitialMigration(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db         *gorm.DB
	log        logrus.FieldLogger
	document   Document
	conversion Conversion
	metadata   Metadata
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:         db,
		log:        logrus.New().WithField("pkg", "store"),
		document:   NewDocumentStore(db),
		conversion: NewConversionStore(db),
		metadata:   NewMetadataStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db, s.log)
}

func (s *DataStore) Document() Document {
	return s.document
}

func (s *DataStore) Conversion() Conversion {
	return s.conversion
}

func (s *DataStore) Metadata() Metadata {
	return s.metadata
}

// InitialMigration creates the tables from the models. Deployments backed by
// postgres use the goose migrations instead.
func (s *DataStore) InitialMigration(ctx context.Context) error {
	if err := s.document.InitialMigration(ctx); err != nil {
		return err
	}
	if err := s.conversion.InitialMigration(ctx); err != nil {
		return err
	}
	return s.metadata.InitialMigration(ctx)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
