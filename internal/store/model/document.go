package model

import (
	"encoding/json"
	"time"
)

// Document is created once at intake and never mutated afterwards.
type Document struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FileName    string    `json:"fileName" gorm:"not null"`
	ContentType string    `json:"contentType" gorm:"not null"`
	Size        int64     `json:"size" gorm:"not null"`
	BlobKey     string    `json:"blobKey" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (d Document) String() string {
	val, _ := json.Marshal(d)
	return string(val)
}
