package services

import (
	"errors"

	"github.com/atelierhq/atelier/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileService manages file metadata. The bytes live in external
// storage; this service only tracks the ledger rows addressing them.
type FileService struct {
	db       *gorm.DB
	perm     *PermissionService
	activity *ActivityService
}

func NewFileService(db *gorm.DB, perm *PermissionService, activity *ActivityService) *FileService {
	return &FileService{db: db, perm: perm, activity: activity}
}

type CreateFileRequest struct {
	Name      string `json:"name" binding:"required"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes" binding:"min=0"`
}

// List returns the non-deleted files of a project.
func (s *FileService) List(projectID uint) ([]models.ProjectFile, error) {
	var files []models.ProjectFile
	if err := s.db.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&files).Error; err != nil {
		return nil, storageErr(err)
	}
	return files, nil
}

// Create registers file metadata under a fresh storage key. Requires
// write-file permission.
func (s *FileService) Create(projectID uint, req *CreateFileRequest, actingUserID uint) (*models.ProjectFile, error) {
	if err := s.perm.Require(projectID, actingUserID, PermWriteFile); err != nil {
		return nil, err
	}

	file := models.ProjectFile{
		ProjectID:  projectID,
		Name:       req.Name,
		StorageKey: uuid.New().String(),
		MimeType:   req.MimeType,
		SizeBytes:  req.SizeBytes,
		UploadedBy: actingUserID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&file).Error; err != nil {
			return err
		}
		pid := projectID
		return s.activity.Stage(tx, ActivityEntry{
			ActorID:   actingUserID,
			Action:    ActionFileUploaded,
			ProjectID: &pid,
			Details:   map[string]interface{}{"name": file.Name, "storage_key": file.StorageKey},
		})
	})
	if err != nil {
		return nil, storageErr(err)
	}
	s.activity.Kick()
	return &file, nil
}

// Delete soft-deletes file metadata. Requires write-file permission.
func (s *FileService) Delete(fileID, actingUserID uint) error {
	var file models.ProjectFile
	if err := s.db.First(&file, fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return storageErr(err)
	}
	if err := s.perm.Require(file.ProjectID, actingUserID, PermWriteFile); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&file).Error; err != nil {
			return err
		}
		pid := file.ProjectID
		return s.activity.Stage(tx, ActivityEntry{
			ActorID:   actingUserID,
			Action:    ActionFileDeleted,
			ProjectID: &pid,
			Details:   map[string]interface{}{"name": file.Name},
		})
	})
	if err != nil {
		return storageErr(err)
	}
	s.activity.Kick()
	return nil
}
