package handlers

import (
	"github.com/atelierhq/atelier/backend/internal/middleware"
	"github.com/atelierhq/atelier/backend/internal/services"
	"github.com/atelierhq/atelier/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	permService    *services.PermissionService
}

func NewProjectHandler(projectService *services.ProjectService, permService *services.PermissionService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, permService: permService}
}

// List returns the caller's projects
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.projectService.List(&req, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, resp)
}

// GetByID returns a project by ID
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if !h.permService.HasPermission(id, middleware.GetUserID(c), services.PermView) {
		response.Forbidden(c, "permission denied")
		return
	}

	project, err := h.projectService.GetByID(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, project)
}

// Create creates a new project owned by the caller
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, project)
}

// Update updates project metadata
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(id, &req, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, project)
}

type TransitionPhaseRequest struct {
	NextPhase string `json:"next_phase" binding:"required"`
	Reason    string `json:"reason"`
}

// TransitionPhase advances a project one phase forward
// POST /api/projects/:id/transition
func (h *ProjectHandler) TransitionPhase(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TransitionPhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if !services.IsValidPhase(req.NextPhase) {
		response.BadRequest(c, "unknown phase "+req.NextPhase)
		return
	}

	project, err := h.projectService.TransitionPhase(id, req.NextPhase, middleware.GetUserID(c), req.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, project)
}

// Delete deletes a project and everything under it
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.projectService.Delete(id, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if !deleted {
		response.Forbidden(c, "only the project owner can delete a project")
		return
	}

	response.Success(c, gin.H{"message": "project deleted successfully"})
}
