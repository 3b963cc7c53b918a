package model

import "time"

// Metadata holds the document properties extracted by the metadata worker.
// A missing row means extraction has not finished or has failed.
type Metadata struct {
	DocumentID  string            `json:"documentId" gorm:"primaryKey;type:varchar(36)"`
	Properties  map[string]string `json:"properties" gorm:"serializer:json;type:text;not null"`
	ExtractedAt time.Time         `json:"extractedAt"`
}

func (Metadata) TableName() string {
	return "document_metadata"
}
