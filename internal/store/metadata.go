package store

import (
	"context"
	"time"

	"github.com/docpipe/docpipe/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Metadata interface {
	InitialMigration(ctx context.Context) error
	// Upsert stores the properties of a document. The last write wins.
	Upsert(ctx context.Context, documentID string, properties map[string]string) (*model.Metadata, error)
	Get(ctx context.Context, documentID string) (*model.Metadata, error)
}

type MetadataStore struct {
	db *gorm.DB
}

// Make sure we conform to Metadata interface
var _ Metadata = (*MetadataStore)(nil)

func NewMetadataStore(db *gorm.DB) Metadata {
	return &MetadataStore{db: db}
}

func (m *MetadataStore) InitialMigration(ctx context.Context) error {
	return m.getDB(ctx).AutoMigrate(&model.Metadata{})
}

func (m *MetadataStore) Upsert(ctx context.Context, documentID string, properties map[string]string) (*model.Metadata, error) {
	if properties == nil {
		properties = map[string]string{}
	}

	md := model.Metadata{
		DocumentID:  documentID,
		Properties:  properties,
		ExtractedAt: time.Now(),
	}

	result := m.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"properties", "extracted_at"}),
	}).Create(&md)
	if result.Error != nil {
		return nil, translate(result.Error)
	}

	return &md, nil
}

func (m *MetadataStore) Get(ctx context.Context, documentID string) (*model.Metadata, error) {
	var md model.Metadata
	if result := m.getDB(ctx).Where("document_id = ?", documentID).First(&md); result.Error != nil {
		return nil, translate(result.Error)
	}
	return &md, nil
}

func (m *MetadataStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return m.db.WithContext(ctx)
}
