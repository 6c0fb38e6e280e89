package services

import (
	"errors"
	"fmt"

	"github.com/atelierhq/atelier/backend/internal/models"
	"gorm.io/gorm"
)

// ClientService manages customer records.
type ClientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{db: db}
}

type CreateClientRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
	Phone        string `json:"phone"`
	Notes        string `json:"notes"`
}

type UpdateClientRequest struct {
	Name         string  `json:"name"`
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email"`
	Phone        *string `json:"phone"`
	Notes        *string `json:"notes"`
}

type ClientListRequest struct {
	Page     int    `form:"page" binding:"min=1"`
	PageSize int    `form:"page_size" binding:"min=1,max=100"`
	Name     string `form:"name"`
}

type ClientListResponse struct {
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Items    []models.Client `json:"items"`
}

// List returns paginated clients
func (s *ClientService) List(req *ClientListRequest) (*ClientListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var clients []models.Client
	var total int64

	query := s.db.Model(&models.Client{})

	if req.Name != "" {
		query = query.Where("name LIKE ?", "%"+req.Name+"%")
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&clients).Error; err != nil {
		return nil, storageErr(err)
	}

	return &ClientListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    clients,
	}, nil
}

// GetByID returns a client by ID
func (s *ClientService) GetByID(id uint) (*models.Client, error) {
	var client models.Client
	if err := s.db.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}
	return &client, nil
}

// Create creates a new client
func (s *ClientService) Create(req *CreateClientRequest, actingUserID uint) (*models.Client, error) {
	client := models.Client{
		Name:         req.Name,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		Phone:        req.Phone,
		Notes:        req.Notes,
		CreatedBy:    actingUserID,
	}

	if err := s.db.Create(&client).Error; err != nil {
		return nil, storageErr(err)
	}
	return &client, nil
}

// Update updates a client
func (s *ClientService) Update(id uint, req *UpdateClientRequest) (*models.Client, error) {
	var client models.Client
	if err := s.db.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.ContactName != nil {
		updates["contact_name"] = *req.ContactName
	}
	if req.ContactEmail != nil {
		updates["contact_email"] = *req.ContactEmail
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := s.db.Model(&client).Updates(updates).Error; err != nil {
			return nil, storageErr(err)
		}
	}
	return &client, nil
}

// Delete soft-deletes a client. Clients with live projects cannot be
// deleted; their projects must be deleted first.
func (s *ClientService) Delete(id uint) error {
	var projectCount int64
	if err := s.db.Model(&models.Project{}).Where("client_id = ?", id).Count(&projectCount).Error; err != nil {
		return storageErr(err)
	}
	if projectCount > 0 {
		return fmt.Errorf("%w: client has %d active projects", ErrValidation, projectCount)
	}

	result := s.db.Delete(&models.Client{}, id)
	if result.Error != nil {
		return storageErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
