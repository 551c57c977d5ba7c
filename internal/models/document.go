package models

import (
	"time"

	"gorm.io/datatypes"
)

// DocumentStatus is the processing state of an uploaded document.
// Transitions move forward only (uploading -> processing -> ready|failed);
// ready and failed re-enter processing on an explicit reprocess.
type DocumentStatus string

const (
	StatusUploading  DocumentStatus = "uploading"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is an uploaded file tracked through the ingestion pipeline.
// The record is created at upload time; after that only the ingestion
// coordinator mutates it. Status and Error are the contract consumed by the
// UI layer to render processing state.
type Document struct {
	ID          string         `gorm:"primaryKey;size:36"`
	Title       string         `gorm:"size:512;not null"`
	StoragePath string         `gorm:"size:1024;not null"` // canonical object storage path, the sole join key to the bytes
	WorkspaceID string         `gorm:"index;not null;size:36"`
	OwnerID     string         `gorm:"size:36"`
	Status      DocumentStatus `gorm:"size:16;not null;default:uploading"`
	Error       *string        `gorm:"size:1024"` // terminal failure message or non-fatal annotation
	PageCount   int
	Meta        datatypes.JSON // PDF metadata dictionary (title, author, creation date)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
