package services

import (
	"errors"
	"fmt"

	"github.com/atelierhq/atelier/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberService manages project team membership rows. A (project, user)
// pair holds at most one role; adding an existing pair updates the role
// in place.
type MemberService struct {
	db       *gorm.DB
	perm     *PermissionService
	activity *ActivityService
}

func NewMemberService(db *gorm.DB, perm *PermissionService, activity *ActivityService) *MemberService {
	return &MemberService{db: db, perm: perm, activity: activity}
}

type UpsertMemberRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required,oneof=manager member viewer"`
}

// List returns all members of a project.
func (s *MemberService) List(projectID uint) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := s.db.Where("project_id = ?", projectID).
		Preload("User").
		Find(&members).Error; err != nil {
		return nil, storageErr(err)
	}
	return members, nil
}

// Upsert adds a user to a project or updates their existing role.
// Requires manage-team permission. The owner never gets a membership
// row; ownership is implicit.
func (s *MemberService) Upsert(projectID uint, req *UpsertMemberRequest, actingUserID uint) (*models.ProjectMember, error) {
	if err := s.perm.Require(projectID, actingUserID, PermManageTeam); err != nil {
		return nil, err
	}

	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}
	if project.CreatedBy == req.UserID {
		return nil, fmt.Errorf("%w: the project owner cannot be added as a member", ErrValidation)
	}

	var user models.User
	if err := s.db.First(&user, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, req.UserID)
		}
		return nil, storageErr(err)
	}

	member := models.ProjectMember{
		ProjectID: projectID,
		UserID:    req.UserID,
		Role:      req.Role,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).Create(&member).Error; err != nil {
			return err
		}
		pid := projectID
		return s.activity.Stage(tx, ActivityEntry{
			ActorID:   actingUserID,
			Action:    ActionMemberAdded,
			ProjectID: &pid,
			Details:   map[string]interface{}{"user_id": req.UserID, "role": req.Role},
		})
	})
	if err != nil {
		return nil, storageErr(err)
	}
	s.activity.Kick()

	s.db.Preload("User").First(&member, member.ID)
	return &member, nil
}

// Remove removes a member from a project. Requires manage-team
// permission.
func (s *MemberService) Remove(projectID, userID, actingUserID uint) error {
	if err := s.perm.Require(projectID, actingUserID, PermManageTeam); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().
			Where("project_id = ? AND user_id = ?", projectID, userID).
			Delete(&models.ProjectMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		pid := projectID
		return s.activity.Stage(tx, ActivityEntry{
			ActorID:   actingUserID,
			Action:    ActionMemberRemoved,
			ProjectID: &pid,
			Details:   map[string]interface{}{"user_id": userID},
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return storageErr(err)
	}
	s.activity.Kick()
	return nil
}
