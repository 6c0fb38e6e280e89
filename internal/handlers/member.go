package handlers

import (
	"github.com/atelierhq/atelier/backend/internal/middleware"
	"github.com/atelierhq/atelier/backend/internal/services"
	"github.com/atelierhq/atelier/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	memberService *services.MemberService
	permService   *services.PermissionService
}

func NewMemberHandler(memberService *services.MemberService, permService *services.PermissionService) *MemberHandler {
	return &MemberHandler{memberService: memberService, permService: permService}
}

// List returns the members of a project
// GET /api/projects/:id/members
func (h *MemberHandler) List(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if !h.permService.HasPermission(projectID, middleware.GetUserID(c), services.PermView) {
		response.Forbidden(c, "permission denied")
		return
	}

	members, err := h.memberService.List(projectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, members)
}

// Upsert adds a member or updates their role
// POST /api/projects/:id/members
func (h *MemberHandler) Upsert(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpsertMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.memberService.Upsert(projectID, &req, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, member)
}

// Remove removes a member from a project
// DELETE /api/projects/:id/members/:userId
func (h *MemberHandler) Remove(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	if err := h.memberService.Remove(projectID, userID, middleware.GetUserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "member removed successfully"})
}
