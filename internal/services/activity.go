package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/atelierhq/atelier/backend/internal/models"
	"github.com/atelierhq/atelier/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Activity actions recorded in the ledger.
const (
	ActionProjectCreated    = "project_created"
	ActionProjectUpdated    = "project_updated"
	ActionProjectDeleted    = "project_deleted"
	ActionPhaseTransitioned = "phase_transitioned"
	ActionTaskCreated       = "task_created"
	ActionTaskStatusChanged = "task_status_changed"
	ActionTaskDeleted       = "task_deleted"
	ActionMemberAdded       = "member_added"
	ActionMemberRemoved     = "member_removed"
	ActionFileUploaded      = "file_uploaded"
	ActionFileDeleted       = "file_deleted"
	ActionAuthzDenied       = "authz_denied"
	ActionUserDeactivated   = "user_deactivated"
)

// ActivityService records activity entries through an outbox. Entries
// for mutations are staged inside the mutation's own transaction; a
// dispatcher moves staged rows into the append-only ledger afterwards.
type ActivityService struct {
	db    *gorm.DB
	queue TaskQueue
}

func NewActivityService(db *gorm.DB, queue TaskQueue) *ActivityService {
	return &ActivityService{db: db, queue: queue}
}

// ActivityEntry describes one ledger entry to record.
type ActivityEntry struct {
	ActorID   uint
	Action    string
	ProjectID *uint
	TaskID    *uint
	Details   interface{}
	Bulk      bool
}

// Stage writes an outbox row using tx, so the entry commits or rolls
// back together with the mutation it describes.
func (s *ActivityService) Stage(tx *gorm.DB, e ActivityEntry) error {
	row := outboxRow(e)
	return tx.Create(row).Error
}

// RecordDenied records an authz_denied entry for a rejected permission
// check. There is no surrounding transaction; the write is best-effort
// and never affects the outcome of the denied request.
func (s *ActivityService) RecordDenied(userID uint, permission string, projectID uint) {
	pid := projectID
	row := outboxRow(ActivityEntry{
		ActorID:   userID,
		Action:    ActionAuthzDenied,
		ProjectID: &pid,
		Details:   map[string]interface{}{"permission": permission},
	})
	if err := s.db.Create(row).Error; err != nil {
		logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to record authz denial")
		return
	}
	s.Kick()
}

// Kick asks the dispatcher to drain the outbox. Best-effort; the
// periodic sweep picks up anything a missed kick leaves behind.
func (s *ActivityService) Kick() {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(&DispatchTask{}); err != nil {
		logger.Warn().Err(err).Msg("failed to enqueue activity dispatch")
	}
}

func outboxRow(e ActivityEntry) *models.ActivityOutbox {
	var details string
	if e.Details != nil {
		if b, err := json.Marshal(e.Details); err == nil {
			details = string(b)
		}
	}
	return &models.ActivityOutbox{
		ActorID:   e.ActorID,
		Action:    e.Action,
		ProjectID: e.ProjectID,
		TaskID:    e.TaskID,
		Details:   details,
		Bulk:      e.Bulk,
		CreatedAt: time.Now(),
	}
}

// SweepOutbox moves all undispatched outbox rows into the ledger.
// Returns the number of rows dispatched.
func (s *ActivityService) SweepOutbox(ctx context.Context) (int, error) {
	var rows []models.ActivityOutbox
	if err := s.db.WithContext(ctx).
		Where("dispatched_at IS NULL").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return 0, err
	}

	dispatched := 0
	for i := range rows {
		row := rows[i]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			entry := models.ActivityLog{
				ActorID:   row.ActorID,
				Action:    row.Action,
				ProjectID: row.ProjectID,
				TaskID:    row.TaskID,
				Details:   row.Details,
				Bulk:      row.Bulk,
				CreatedAt: row.CreatedAt,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			now := time.Now()
			return tx.Model(&models.ActivityOutbox{}).
				Where("id = ? AND dispatched_at IS NULL", row.ID).
				Update("dispatched_at", &now).Error
		})
		if err != nil {
			return dispatched, err
		}
		dispatched++
	}
	return dispatched, nil
}

type ActivityListRequest struct {
	Page      int    `form:"page" binding:"min=1"`
	PageSize  int    `form:"page_size" binding:"min=1,max=100"`
	Action    string `form:"action"`
	ProjectID *uint  `form:"project_id"`
	ActorID   *uint  `form:"actor_id"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type ActivityListResponse struct {
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Items    []models.ActivityLog `json:"items"`
}

// List returns paginated ledger entries, newest first.
func (s *ActivityService) List(req *ActivityListRequest) (*ActivityListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var entries []models.ActivityLog
	var total int64

	query := s.db.Model(&models.ActivityLog{})

	if req.Action != "" {
		query = query.Where("action = ?", req.Action)
	}
	if req.ProjectID != nil {
		query = query.Where("project_id = ?", *req.ProjectID)
	}
	if req.ActorID != nil {
		query = query.Where("actor_id = ?", *req.ActorID)
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}

	return &ActivityListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    entries,
	}, nil
}

// CleanupOldEntries deletes ledger entries and dispatched outbox rows
// older than retentionDays. Returns the number of deleted ledger rows.
func (s *ActivityService) CleanupOldEntries(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	s.db.Where("dispatched_at IS NOT NULL AND created_at < ?", cutoff).
		Delete(&models.ActivityOutbox{})

	return result.RowsAffected, nil
}

var retentionCron *cron.Cron

// StartRetentionScheduler sweeps the outbox every minute and runs
// retention cleanup nightly.
func StartRetentionScheduler(s *ActivityService, retentionDays int) {
	retentionCron = cron.New()

	retentionCron.AddFunc("* * * * *", func() {
		if n, err := s.SweepOutbox(context.Background()); err != nil {
			logger.Warnf("[Activity] outbox sweep failed: %v", err)
		} else if n > 0 {
			logger.Infof("[Activity] dispatched %d outbox entries", n)
		}
	})

	retentionCron.AddFunc("30 3 * * *", func() {
		deleted, err := s.CleanupOldEntries(retentionDays)
		if err != nil {
			logger.Warnf("[Activity] retention cleanup failed: %v", err)
			return
		}
		if deleted > 0 {
			logger.Infof("[Activity] cleaned up %d entries older than %d days", deleted, retentionDays)
		}
	})

	retentionCron.Start()
}

// StopRetentionScheduler stops the retention cron.
func StopRetentionScheduler() {
	if retentionCron != nil {
		retentionCron.Stop()
	}
}
