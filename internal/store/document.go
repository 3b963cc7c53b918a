package store

import (
	"context"

	"github.com/docpipe/docpipe/internal/store/model"
	"gorm.io/gorm"
)

type Document interface {
	InitialMigration(ctx context.Context) error
	Create(ctx context.Context, doc model.Document) (*model.Document, error)
	Get(ctx context.Context, id string) (*model.Document, error)
}

type DocumentStore struct {
	db *gorm.DB
}

// Make sure we conform to Document interface
var _ Document = (*DocumentStore)(nil)

func NewDocumentStore(db *gorm.DB) Document {
	return &DocumentStore{db: db}
}

func (d *DocumentStore) InitialMigration(ctx context.Context) error {
	return d.getDB(ctx).AutoMigrate(&model.Document{})
}

func (d *DocumentStore) Create(ctx context.Context, doc model.Document) (*model.Document, error) {
	if result := d.getDB(ctx).Create(&doc); result.Error != nil {
		return nil, translate(result.Error)
	}
	return &doc, nil
}

func (d *DocumentStore) Get(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if result := d.getDB(ctx).Where("id = ?", id).First(&doc); result.Error != nil {
		return nil, translate(result.Error)
	}
	return &doc, nil
}

func (d *DocumentStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return d.db.WithContext(ctx)
}
