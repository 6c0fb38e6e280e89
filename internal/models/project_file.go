package models

import (
	"time"

	"gorm.io/gorm"
)

// ProjectFile holds metadata for an uploaded file. The bytes themselves
// live in external storage, addressed by StorageKey.
type ProjectFile struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ProjectID  uint           `gorm:"not null;index" json:"project_id"`
	Project    *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Name       string         `gorm:"size:300;not null" json:"name"`
	StorageKey string         `gorm:"size:64;uniqueIndex;not null" json:"storage_key"`
	MimeType   string         `gorm:"size:100" json:"mime_type"`
	SizeBytes  int64          `json:"size_bytes"`
	UploadedBy uint           `json:"uploaded_by"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ProjectFile) TableName() string { return "project_files" }
