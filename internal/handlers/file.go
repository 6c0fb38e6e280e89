package handlers

import (
	"github.com/atelierhq/atelier/backend/internal/middleware"
	"github.com/atelierhq/atelier/backend/internal/services"
	"github.com/atelierhq/atelier/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	fileService *services.FileService
	permService *services.PermissionService
}

func NewFileHandler(fileService *services.FileService, permService *services.PermissionService) *FileHandler {
	return &FileHandler{fileService: fileService, permService: permService}
}

// List returns the files of a project
// GET /api/projects/:id/files
func (h *FileHandler) List(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if !h.permService.HasPermission(projectID, middleware.GetUserID(c), services.PermView) {
		response.Forbidden(c, "permission denied")
		return
	}

	files, err := h.fileService.List(projectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, files)
}

// Create registers file metadata for a project
// POST /api/projects/:id/files
func (h *FileHandler) Create(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	file, err := h.fileService.Create(projectID, &req, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, file)
}

// Delete removes file metadata
// DELETE /api/files/:id
func (h *FileHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.fileService.Delete(id, middleware.GetUserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "file deleted successfully"})
}
