package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/atelierhq/atelier/backend/internal/models"
	"gorm.io/gorm"
)

// errDeleteNotAdmitted aborts the delete transaction when the atomic
// ownership+existence condition did not match any row.
var errDeleteNotAdmitted = errors.New("delete not admitted")

// ProjectService implements project CRUD, the phase transition engine
// and the cascading deletion orchestrator.
type ProjectService struct {
	db       *gorm.DB
	perm     *PermissionService
	activity *ActivityService
	notifier *NotificationService
}

func NewProjectService(db *gorm.DB, perm *PermissionService, activity *ActivityService, notifier *NotificationService) *ProjectService {
	return &ProjectService{db: db, perm: perm, activity: activity, notifier: notifier}
}

type CreateProjectRequest struct {
	ClientID    uint       `json:"client_id" binding:"required"`
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	StartDate   *time.Time `json:"start_date"`
	Deadline    *time.Time `json:"deadline"`
}

type UpdateProjectRequest struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	StartDate   *time.Time `json:"start_date"`
	Deadline    *time.Time `json:"deadline"`
}

type ProjectListRequest struct {
	Page     int    `form:"page" binding:"min=1"`
	PageSize int    `form:"page_size" binding:"min=1,max=100"`
	Name     string `form:"name"`
	Phase    string `form:"phase"`
	ClientID *uint  `form:"client_id"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

func validateDates(start, deadline *time.Time) error {
	if start != nil && deadline != nil && deadline.Before(*start) {
		return fmt.Errorf("%w: deadline must not be before start date", ErrValidation)
	}
	return nil
}

// Create creates a new project in the first pipeline phase. The creator
// becomes the implicit owner without a membership row.
func (s *ProjectService) Create(req *CreateProjectRequest, actingUserID uint) (*models.Project, error) {
	if err := validateDates(req.StartDate, req.Deadline); err != nil {
		return nil, err
	}

	var client models.Client
	if err := s.db.First(&client, req.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: client %d", ErrNotFound, req.ClientID)
		}
		return nil, storageErr(err)
	}

	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}

	project := models.Project{
		ClientID:     req.ClientID,
		Name:         req.Name,
		Description:  req.Description,
		CurrentPhase: models.PhaseClientAcquisition,
		Priority:     req.Priority,
		StartDate:    req.StartDate,
		Deadline:     req.Deadline,
		CreatedBy:    actingUserID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		// New projects start with the first phase's template tasks
		if err := s.provisionTemplateTasks(tx, project.ID, models.PhaseClientAcquisition, actingUserID); err != nil {
			return err
		}
		pid := project.ID
		return s.activity.Stage(tx, ActivityEntry{
			ActorID:   actingUserID,
			Action:    ActionProjectCreated,
			ProjectID: &pid,
			Details:   map[string]interface{}{"name": project.Name, "client_id": project.ClientID},
		})
	})
	if err != nil {
		return nil, storageErr(err)
	}
	s.activity.Kick()
	return &project, nil
}

// Update edits project metadata. Requires the update permission.
func (s *ProjectService) Update(projectID uint, req *UpdateProjectRequest, actingUserID uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}
	if err := s.perm.Require(projectID, actingUserID, PermUpdate); err != nil {
		return nil, err
	}

	start := project.StartDate
	deadline := project.Deadline
	if req.StartDate != nil {
		start = req.StartDate
	}
	if req.Deadline != nil {
		deadline = req.Deadline
	}
	if err := validateDates(start, deadline); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != "" {
		updates["priority"] = req.Priority
	}
	if req.StartDate != nil {
		updates["start_date"] = req.StartDate
	}
	if req.Deadline != nil {
		updates["deadline"] = req.Deadline
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&project).Updates(updates).Error; err != nil {
				return err
			}
		}
		pid := project.ID
		return s.activity.Stage(tx, ActivityEntry{
			ActorID:   actingUserID,
			Action:    ActionProjectUpdated,
			ProjectID: &pid,
		})
	})
	if err != nil {
		return nil, storageErr(err)
	}
	s.activity.Kick()
	return &project, nil
}

// List returns projects the user can see: owned, or joined through a
// membership row.
func (s *ProjectService) List(req *ProjectListRequest, userID uint) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var projects []models.Project
	var total int64

	query := s.db.Model(&models.Project{}).
		Where("projects.created_by = ? OR projects.id IN (?)", userID,
			s.db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID))

	if req.Name != "" {
		query = query.Where("projects.name LIKE ?", "%"+req.Name+"%")
	}
	if req.Phase != "" {
		query = query.Where("projects.current_phase = ?", req.Phase)
	}
	if req.ClientID != nil {
		query = query.Where("projects.client_id = ?", *req.ClientID)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("projects.created_at DESC").Find(&projects).Error; err != nil {
		return nil, storageErr(err)
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

// GetByID returns a project by ID.
func (s *ProjectService) GetByID(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Preload("Client").First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}
	return &project, nil
}

// TransitionPhase advances a project exactly one step in the pipeline
// and provisions the destination phase's template tasks, all inside one
// transaction under a row lock on the project.
func (s *ProjectService) TransitionPhase(projectID uint, nextPhase string, actingUserID uint, reason string) (*models.Project, error) {
	if err := s.perm.Require(projectID, actingUserID, PermUpdate); err != nil {
		return nil, err
	}

	var project models.Project
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return storageErr(err)
		}

		prev := project.CurrentPhase
		expected, ok := NextPhase(prev)
		if !ok || nextPhase != expected {
			return &InvalidTransitionError{Entity: "project", From: prev, To: nextPhase}
		}

		if err := tx.Model(&project).Update("current_phase", nextPhase).Error; err != nil {
			return storageErr(err)
		}

		if err := s.provisionTemplateTasks(tx, project.ID, nextPhase, actingUserID); err != nil {
			return storageErr(err)
		}

		pid := project.ID
		details := map[string]interface{}{"from": prev, "to": nextPhase}
		if reason != "" {
			details["reason"] = reason
		}
		return s.activity.Stage(tx, ActivityEntry{
			ActorID:   actingUserID,
			Action:    ActionPhaseTransitioned,
			ProjectID: &pid,
			Details:   details,
		})
	})
	if err != nil {
		return nil, err
	}
	s.activity.Kick()

	if s.notifier != nil {
		s.notifier.NotifyPhaseChanged(&project)
	}
	return &project, nil
}

// provisionTemplateTasks inserts the destination phase's template tasks
// that are not already present among the project's non-deleted tasks of
// that phase. Title matching is case- and whitespace-insensitive, which
// makes the provisioning idempotent under replays.
func (s *ProjectService) provisionTemplateTasks(tx *gorm.DB, projectID uint, phase string, actingUserID uint) error {
	var existing []models.Task
	if err := tx.Select("title").
		Where("project_id = ? AND phase = ?", projectID, phase).
		Find(&existing).Error; err != nil {
		return err
	}

	present := make(map[string]bool, len(existing))
	for _, t := range existing {
		present[normalizeTitle(t.Title)] = true
	}

	for _, title := range TemplateTasks(phase) {
		if present[normalizeTitle(title)] {
			continue
		}
		task := models.Task{
			ProjectID: projectID,
			Title:     title,
			Phase:     phase,
			Status:    models.TaskStatusPending,
			CreatedBy: actingUserID,
		}
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete soft-deletes a project and cascades: tasks and files are
// soft-deleted, membership rows are removed for good. The ownership
// check and the project deletion are a single conditional update, so
// there is no window between check and delete. Returns true iff a
// project owned by actingUserID was deleted; any failure rolls the
// whole cascade back.
func (s *ProjectService) Delete(projectID, actingUserID uint) (bool, error) {
	if err := s.perm.Require(projectID, actingUserID, PermDelete); err != nil {
		return false, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND created_by = ?", projectID, actingUserID).
			Delete(&models.Project{})
		if res.Error != nil {
			return storageErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return errDeleteNotAdmitted
		}

		if err := tx.Where("project_id = ?", projectID).Delete(&models.Task{}).Error; err != nil {
			return storageErr(err)
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectFile{}).Error; err != nil {
			return storageErr(err)
		}
		// Membership rows carry no history worth retaining
		if err := tx.Unscoped().Where("project_id = ?", projectID).Delete(&models.ProjectMember{}).Error; err != nil {
			return storageErr(err)
		}

		pid := projectID
		return s.activity.Stage(tx, ActivityEntry{
			ActorID:   actingUserID,
			Action:    ActionProjectDeleted,
			ProjectID: &pid,
		})
	})
	if errors.Is(err, errDeleteNotAdmitted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.activity.Kick()
	return true, nil
}
