package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/atelierhq/atelier/backend/internal/models"
	"gorm.io/gorm"
)

// Bulk failure reasons reported per item.
const (
	BulkReasonNotFound          = "not_found"
	BulkReasonInvalidTransition = "invalid_transition"
)

// TaskService implements the task status machine, bulk execution and
// plain task CRUD.
type TaskService struct {
	db       *gorm.DB
	perm     *PermissionService
	activity *ActivityService
	notifier *NotificationService
}

func NewTaskService(db *gorm.DB, perm *PermissionService, activity *ActivityService, notifier *NotificationService) *TaskService {
	return &TaskService{db: db, perm: perm, activity: activity, notifier: notifier}
}

type CreateTaskRequest struct {
	ProjectID   uint       `json:"project_id" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Phase       string     `json:"phase" binding:"required"`
	AssigneeID  *uint      `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	AssigneeID  *uint      `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

type TaskListRequest struct {
	Page       int    `form:"page" binding:"min=1"`
	PageSize   int    `form:"page_size" binding:"min=1,max=100"`
	Phase      string `form:"phase"`
	Status     string `form:"status"`
	AssigneeID *uint  `form:"assignee_id"`
}

type TaskListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.Task `json:"items"`
}

// Create adds a task to a project. Requires write-task permission.
func (s *TaskService) Create(req *CreateTaskRequest, actingUserID uint) (*models.Task, error) {
	if !IsValidPhase(req.Phase) {
		return nil, fmt.Errorf("%w: unknown phase %q", ErrValidation, req.Phase)
	}
	if err := s.perm.Require(req.ProjectID, actingUserID, PermWriteTask); err != nil {
		return nil, err
	}

	task := models.Task{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Phase:       req.Phase,
		Status:      models.TaskStatusPending,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
		CreatedBy:   actingUserID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		pid := task.ProjectID
		tid := task.ID
		return s.activity.Stage(tx, ActivityEntry{
			ActorID:   actingUserID,
			Action:    ActionTaskCreated,
			ProjectID: &pid,
			TaskID:    &tid,
			Details:   map[string]interface{}{"title": task.Title, "phase": task.Phase},
		})
	})
	if err != nil {
		return nil, storageErr(err)
	}
	s.activity.Kick()

	if task.AssigneeID != nil && s.notifier != nil {
		s.notifier.NotifyTaskAssigned(&task)
	}
	return &task, nil
}

// Update edits task metadata. Status changes go through TransitionStatus
// only, never through here.
func (s *TaskService) Update(taskID uint, req *UpdateTaskRequest, actingUserID uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}
	if err := s.perm.Require(task.ProjectID, actingUserID, PermWriteTask); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.AssigneeID != nil {
		updates["assignee_id"] = req.AssigneeID
	}
	if req.DueDate != nil {
		updates["due_date"] = req.DueDate
	}

	if len(updates) > 0 {
		if err := s.db.Model(&task).Updates(updates).Error; err != nil {
			return nil, storageErr(err)
		}
	}

	if req.AssigneeID != nil && s.notifier != nil {
		s.notifier.NotifyTaskAssigned(&task)
	}
	return &task, nil
}

// List returns paginated tasks for a project.
func (s *TaskService) List(projectID uint, req *TaskListRequest) (*TaskListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var tasks []models.Task
	var total int64

	query := s.db.Model(&models.Task{}).Where("project_id = ?", projectID)

	if req.Phase != "" {
		query = query.Where("phase = ?", req.Phase)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *req.AssigneeID)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, storageErr(err)
	}

	return &TaskListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    tasks,
	}, nil
}

// GetByID returns a task by ID.
func (s *TaskService) GetByID(taskID uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.Preload("Assignee").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}
	return &task, nil
}

// TransitionStatus applies one status transition under a row lock.
// Two concurrent transitions on the same task are linearized by the
// lock; the loser re-reads the winner's state and is rejected with an
// invalid-transition error instead of silently overwriting it.
func (s *TaskService) TransitionStatus(taskID uint, next string, actingUserID uint) (*models.Task, error) {
	var probe models.Task
	if err := s.db.Select("id", "project_id").First(&probe, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}
	if err := s.perm.Require(probe.ProjectID, actingUserID, PermWriteTask); err != nil {
		return nil, err
	}

	task, err := s.transitionTx(taskID, next, actingUserID, false)
	if err != nil {
		return nil, err
	}
	s.activity.Kick()
	return task, nil
}

// transitionTx is the locked read-validate-write core shared by single
// and bulk transitions. Each call is its own transaction.
func (s *TaskService) transitionTx(taskID uint, next string, actingUserID uint, bulk bool) (*models.Task, error) {
	var task models.Task
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return storageErr(err)
		}

		prev := task.Status
		if !IsValidTaskStatus(next) || !statusEdgeAllowed(prev, next) {
			return &InvalidTransitionError{Entity: "task", From: prev, To: next}
		}

		updates := map[string]interface{}{"status": next}
		if next == models.TaskStatusCompleted {
			now := time.Now()
			updates["completed_at"] = &now
		} else {
			updates["completed_at"] = nil
		}
		if err := tx.Model(&task).Updates(updates).Error; err != nil {
			return storageErr(err)
		}

		pid := task.ProjectID
		tid := task.ID
		return s.activity.Stage(tx, ActivityEntry{
			ActorID:   actingUserID,
			Action:    ActionTaskStatusChanged,
			ProjectID: &pid,
			TaskID:    &tid,
			Details:   map[string]interface{}{"from": prev, "to": next},
			Bulk:      bulk,
		})
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// BulkItemResult reports the outcome for one task in a bulk request.
type BulkItemResult struct {
	TaskID uint   `json:"task_id"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

type BulkTransitionResponse struct {
	UpdatedCount int              `json:"updated_count"`
	FailedCount  int              `json:"failed_count"`
	Results      []BulkItemResult `json:"results"`
}

type BulkDeleteResponse struct {
	DeletedIDs   []uint `json:"deleted_ids"`
	DeletedCount int    `json:"deleted_count"`
}

// admitBatch is the all-or-nothing admission gate: every referenced task
// must exist (not deleted) and the caller must hold write-task on every
// involved project. No mutation happens until the whole batch passes.
func (s *TaskService) admitBatch(taskIDs []uint, actingUserID uint) ([]models.Task, error) {
	if len(taskIDs) == 0 {
		return nil, fmt.Errorf("%w: empty task id list", ErrValidation)
	}

	var tasks []models.Task
	if err := s.db.Where("id IN ?", taskIDs).Find(&tasks).Error; err != nil {
		return nil, storageErr(err)
	}

	found := make(map[uint]bool, len(tasks))
	for _, t := range tasks {
		found[t.ID] = true
	}
	for _, id := range taskIDs {
		if !found[id] {
			return nil, fmt.Errorf("%w: task %d", ErrNotFound, id)
		}
	}

	checked := make(map[uint]bool)
	for _, t := range tasks {
		if checked[t.ProjectID] {
			continue
		}
		if err := s.perm.Require(t.ProjectID, actingUserID, PermWriteTask); err != nil {
			return nil, err
		}
		checked[t.ProjectID] = true
	}
	return tasks, nil
}

// BulkTransitionStatus applies a status transition across a batch. After
// admission, each task is attempted in its own transaction so one
// invalid transition neither blocks nor rolls back the others.
func (s *TaskService) BulkTransitionStatus(taskIDs []uint, next string, actingUserID uint) (*BulkTransitionResponse, error) {
	if _, err := s.admitBatch(taskIDs, actingUserID); err != nil {
		return nil, err
	}

	resp := &BulkTransitionResponse{}
	for _, id := range taskIDs {
		result := BulkItemResult{TaskID: id}
		_, err := s.transitionTx(id, next, actingUserID, true)
		switch {
		case err == nil:
			result.OK = true
			resp.UpdatedCount++
		case errors.Is(err, ErrInvalidTransition):
			result.Reason = BulkReasonInvalidTransition
			resp.FailedCount++
		case errors.Is(err, ErrNotFound):
			// Deleted between admission and mutation
			result.Reason = BulkReasonNotFound
			resp.FailedCount++
		default:
			return nil, err
		}
		resp.Results = append(resp.Results, result)
	}
	s.activity.Kick()
	return resp, nil
}

// BulkDelete soft-deletes a batch of tasks with the same admission gate
// and per-item isolation as BulkTransitionStatus.
func (s *TaskService) BulkDelete(taskIDs []uint, actingUserID uint) (*BulkDeleteResponse, error) {
	if _, err := s.admitBatch(taskIDs, actingUserID); err != nil {
		return nil, err
	}

	resp := &BulkDeleteResponse{}
	for _, id := range taskIDs {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var task models.Task
			if err := lockForUpdate(tx).First(&task, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return storageErr(err)
			}
			if err := tx.Delete(&task).Error; err != nil {
				return storageErr(err)
			}
			pid := task.ProjectID
			tid := task.ID
			return s.activity.Stage(tx, ActivityEntry{
				ActorID:   actingUserID,
				Action:    ActionTaskDeleted,
				ProjectID: &pid,
				TaskID:    &tid,
				Details:   map[string]interface{}{"title": task.Title},
				Bulk:      true,
			})
		})
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		resp.DeletedIDs = append(resp.DeletedIDs, id)
		resp.DeletedCount++
	}
	s.activity.Kick()
	return resp, nil
}
