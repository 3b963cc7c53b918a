package model

import (
	"encoding/json"
	"time"
)

type ConversionState string

const (
	ConversionStatePending   ConversionState = "pending"
	ConversionStateCompleted ConversionState = "completed"
	ConversionStateFailed    ConversionState = "failed"
)

// ConversionStatus is keyed by document id. Only one row ever exists per document.
type ConversionStatus struct {
	DocumentID   string          `json:"documentId" gorm:"primaryKey;type:varchar(36)"`
	FileName     string          `json:"fileName" gorm:"not null"`
	OriginalKey  string          `json:"originalKey" gorm:"not null"`
	ConvertedKey *string         `json:"convertedKey"`
	Status       ConversionState `json:"status" gorm:"not null;index"`
	Error        *string         `json:"error,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt" gorm:"index"`
}

func (ConversionStatus) TableName() string {
	return "conversion_statuses"
}

func (c ConversionStatus) String() string {
	val, _ := json.Marshal(c)
	return string(val)
}

func NewPendingConversion(doc Document) ConversionStatus {
	return ConversionStatus{
		DocumentID:  doc.ID,
		FileName:    doc.FileName,
		OriginalKey: doc.BlobKey,
		Status:      ConversionStatePending,
	}
}
