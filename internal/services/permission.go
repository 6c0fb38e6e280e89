package services

import (
	"errors"

	"gorm.io/gorm"
)

// Project-scoped roles. Owner is implicit (the project's created_by);
// the others come from membership rows.
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleMember  = "member"
	RoleViewer  = "viewer"
)

// Permissions checked against the role matrix.
const (
	PermView       = "view"
	PermUpdate     = "update"
	PermDelete     = "delete"
	PermManageTeam = "manage_team"
	PermWriteTask  = "write_task"
	PermWriteFile  = "write_file"
)

// rolePermissions is the static permission matrix. Not overridable at
// runtime; no role at all means no access.
var rolePermissions = map[string]map[string]bool{
	RoleOwner: {
		PermView: true, PermUpdate: true, PermDelete: true,
		PermManageTeam: true, PermWriteTask: true, PermWriteFile: true,
	},
	RoleManager: {
		PermView: true, PermUpdate: true,
		PermManageTeam: true, PermWriteTask: true, PermWriteFile: true,
	},
	RoleMember: {
		PermView: true, PermWriteTask: true, PermWriteFile: true,
	},
	RoleViewer: {
		PermView: true,
	},
}

// PermissionService resolves a user's effective role on a project and
// answers permission checks. Every write operation in the engine goes
// through Require before mutating anything.
type PermissionService struct {
	db       *gorm.DB
	activity *ActivityService
}

func NewPermissionService(db *gorm.DB, activity *ActivityService) *PermissionService {
	return &PermissionService{db: db, activity: activity}
}

// normalizeRole maps the free-text membership role column onto the
// closed role set. Unrecognized legacy labels fall back to member, the
// least-privileged non-owner role with write access.
func normalizeRole(raw string) string {
	switch raw {
	case RoleManager, RoleMember, RoleViewer:
		return raw
	default:
		return RoleMember
	}
}

// ResolveRole derives the caller's effective role on a project in a
// single read. Ownership always wins over a membership row, even a
// conflicting one. Returns false if the project is absent or deleted,
// or the user has neither ownership nor membership.
func (s *PermissionService) ResolveRole(projectID, userID uint) (string, bool) {
	var row struct {
		CreatedBy  uint
		MemberRole *string
	}

	err := s.db.Table("projects").
		Select("projects.created_by AS created_by, project_members.role AS member_role").
		Joins("LEFT JOIN project_members ON project_members.project_id = projects.id AND project_members.user_id = ? AND project_members.deleted_at IS NULL", userID).
		Where("projects.id = ? AND projects.deleted_at IS NULL", projectID).
		Take(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			// Fail closed on storage trouble
			return "", false
		}
		return "", false
	}

	if row.CreatedBy == userID {
		return RoleOwner, true
	}
	if row.MemberRole != nil {
		return normalizeRole(*row.MemberRole), true
	}
	return "", false
}

// HasPermission reports whether the user holds the permission on the
// project according to the static matrix.
func (s *PermissionService) HasPermission(projectID, userID uint, permission string) bool {
	role, ok := s.ResolveRole(projectID, userID)
	if !ok {
		return false
	}
	return rolePermissions[role][permission]
}

// Require returns ErrForbidden if the user lacks the permission, after
// recording the denial in the activity ledger. The denial record is a
// guaranteed side effect even though the request continues to fail.
func (s *PermissionService) Require(projectID, userID uint, permission string) error {
	if s.HasPermission(projectID, userID, permission) {
		return nil
	}
	if s.activity != nil {
		s.activity.RecordDenied(userID, permission, projectID)
	}
	return ErrForbidden
}
