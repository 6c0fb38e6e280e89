package handlers

import (
	"github.com/atelierhq/atelier/backend/internal/middleware"
	"github.com/atelierhq/atelier/backend/internal/services"
	"github.com/atelierhq/atelier/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	taskService *services.TaskService
	permService *services.PermissionService
}

func NewTaskHandler(taskService *services.TaskService, permService *services.PermissionService) *TaskHandler {
	return &TaskHandler{taskService: taskService, permService: permService}
}

// List returns paginated tasks of a project
// GET /api/projects/:id/tasks
func (h *TaskHandler) List(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if !h.permService.HasPermission(projectID, middleware.GetUserID(c), services.PermView) {
		response.Forbidden(c, "permission denied")
		return
	}

	var req services.TaskListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.taskService.List(projectID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, resp)
}

// GetByID returns a task by ID
// GET /api/tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetByID(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if !h.permService.HasPermission(task.ProjectID, middleware.GetUserID(c), services.PermView) {
		response.Forbidden(c, "permission denied")
		return
	}

	response.Success(c, task)
}

// Create creates a new task
// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, task)
}

// Update edits task metadata
// PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Update(id, &req, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, task)
}

type TransitionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// TransitionStatus applies one status transition to a task
// PUT /api/tasks/:id/status
func (h *TaskHandler) TransitionStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TransitionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.TransitionStatus(id, req.Status, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, task)
}

type BulkStatusRequest struct {
	TaskIDs []uint `json:"task_ids" binding:"required,min=1"`
	Status  string `json:"status" binding:"required"`
}

// BulkTransitionStatus applies a status transition across a batch
// POST /api/tasks/bulk/status
func (h *TaskHandler) BulkTransitionStatus(c *gin.Context) {
	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.taskService.BulkTransitionStatus(req.TaskIDs, req.Status, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, resp)
}

type BulkDeleteRequest struct {
	TaskIDs []uint `json:"task_ids" binding:"required,min=1"`
}

// BulkDelete deletes a batch of tasks
// POST /api/tasks/bulk/delete
func (h *TaskHandler) BulkDelete(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.taskService.BulkDelete(req.TaskIDs, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, resp)
}
