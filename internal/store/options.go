package store

import (
	"time"

	"github.com/docpipe/docpipe/internal/store/model"
	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type ConversionQueryFilter BaseQuerier

func NewConversionQueryFilter() *ConversionQueryFilter {
	return &ConversionQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *ConversionQueryFilter) ByStatus(status model.ConversionState) *ConversionQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ?", status)
	})
	return qf
}

func (qf *ConversionQueryFilter) UpdatedBefore(t time.Time) *ConversionQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("updated_at < ?", t)
	})
	return qf
}

func (qf *ConversionQueryFilter) Limit(n int) *ConversionQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(n)
	})
	return qf
}
