package store

import (
	"context"
	"time"

	"github.com/docpipe/docpipe/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Conversion interface {
	InitialMigration(ctx context.Context) error
	// CreatePending inserts the initial record. It fails with ErrDuplicateKey if the document already has one.
	CreatePending(ctx context.Context, status model.ConversionStatus) (*model.ConversionStatus, error)
	Get(ctx context.Context, documentID string) (*model.ConversionStatus, error)
	List(ctx context.Context, filter *ConversionQueryFilter) ([]model.ConversionStatus, error)
	CountByStatus(ctx context.Context) (map[model.ConversionState]int64, error)
	// MarkCompleted upserts a completed record. A later completion overwrites the converted key.
	MarkCompleted(ctx context.Context, documentID, fileName, originalKey, convertedKey string) (*model.ConversionStatus, error)
	// MarkFailed upserts a failed record unless the document already completed.
	// The returned record is the one stored after the write.
	MarkFailed(ctx context.Context, documentID, fileName, originalKey, reason string) (*model.ConversionStatus, error)
}

type ConversionStore struct {
	db  *gorm.DB
	now func() time.Time
}

// Make sure we conform to Conversion interface
var _ Conversion = (*ConversionStore)(nil)

func NewConversionStore(db *gorm.DB) Conversion {
	return &ConversionStore{db: db, now: time.Now}
}

func (c *ConversionStore) InitialMigration(ctx context.Context) error {
	return c.getDB(ctx).AutoMigrate(&model.ConversionStatus{})
}

func (c *ConversionStore) CreatePending(ctx context.Context, status model.ConversionStatus) (*model.ConversionStatus, error) {
	status.Status = model.ConversionStatePending
	status.ConvertedKey = nil
	status.Error = nil
	status.UpdatedAt = c.now()

	if result := c.getDB(ctx).Create(&status); result.Error != nil {
		return nil, translate(result.Error)
	}
	return &status, nil
}

func (c *ConversionStore) Get(ctx context.Context, documentID string) (*model.ConversionStatus, error) {
	var status model.ConversionStatus
	if result := c.getDB(ctx).Where("document_id = ?", documentID).First(&status); result.Error != nil {
		return nil, translate(result.Error)
	}
	return &status, nil
}

func (c *ConversionStore) List(ctx context.Context, filter *ConversionQueryFilter) ([]model.ConversionStatus, error) {
	var statuses []model.ConversionStatus
	tx := c.getDB(ctx).Model(&statuses).Order("updated_at")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Find(&statuses); result.Error != nil {
		return nil, result.Error
	}
	return statuses, nil
}

func (c *ConversionStore) CountByStatus(ctx context.Context) (map[model.ConversionState]int64, error) {
	var rows []struct {
		Status model.ConversionState
		Total  int64
	}
	result := c.getDB(ctx).Model(&model.ConversionStatus{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	counts := map[model.ConversionState]int64{
		model.ConversionStatePending:   0,
		model.ConversionStateCompleted: 0,
		model.ConversionStateFailed:    0,
	}
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func (c *ConversionStore) MarkCompleted(ctx context.Context, documentID, fileName, originalKey, convertedKey string) (*model.ConversionStatus, error) {
	status := model.ConversionStatus{
		DocumentID:   documentID,
		FileName:     fileName,
		OriginalKey:  originalKey,
		ConvertedKey: &convertedKey,
		Status:       model.ConversionStateCompleted,
		UpdatedAt:    c.now(),
	}

	result := c.getDB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "document_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"file_name":     fileName,
			"original_key":  originalKey,
			"converted_key": convertedKey,
			"status":        model.ConversionStateCompleted,
			"error":         nil,
			"updated_at":    status.UpdatedAt,
		}),
	}).Create(&status)
	if result.Error != nil {
		return nil, translate(result.Error)
	}

	return c.Get(ctx, documentID)
}

func (c *ConversionStore) MarkFailed(ctx context.Context, documentID, fileName, originalKey, reason string) (*model.ConversionStatus, error) {
	status := model.ConversionStatus{
		DocumentID:  documentID,
		FileName:    fileName,
		OriginalKey: originalKey,
		Status:      model.ConversionStateFailed,
		Error:       &reason,
		UpdatedAt:   c.now(),
	}

	// a completed record is never downgraded by a late failure
	result := c.getDB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "document_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":     model.ConversionStateFailed,
			"error":      reason,
			"updated_at": status.UpdatedAt,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "conversion_statuses.status <> ?", Vars: []any{model.ConversionStateCompleted}},
		}},
	}).Create(&status)
	if result.Error != nil {
		return nil, translate(result.Error)
	}

	return c.Get(ctx, documentID)
}

func (c *ConversionStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return c.db.WithContext(ctx)
}
