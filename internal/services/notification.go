package services

import (
	"fmt"
	"time"

	"github.com/atelierhq/atelier/backend/internal/models"
	"github.com/atelierhq/atelier/backend/pkg/logger"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// NotificationService creates and lists in-app notifications and runs
// the due-soon scanner.
type NotificationService struct {
	db       *gorm.DB
	calendar *cal.BusinessCalendar
	cron     *cron.Cron
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(us.Holidays...)
	return &NotificationService{db: db, calendar: c}
}

// List returns a user's notifications, newest first, unread included.
func (s *NotificationService) List(userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var notifications []models.Notification
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, storageErr(err)
	}
	return notifications, nil
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(notificationID, userID uint) error {
	now := time.Now()
	res := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", &now)
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// NotifyTaskAssigned tells the assignee about a task. Best-effort.
func (s *NotificationService) NotifyTaskAssigned(task *models.Task) {
	if task.AssigneeID == nil {
		return
	}
	tid := task.ID
	pid := task.ProjectID
	n := models.Notification{
		UserID:    *task.AssigneeID,
		Type:      models.NotificationTaskAssigned,
		Message:   fmt.Sprintf("You were assigned to task %q", task.Title),
		ProjectID: &pid,
		TaskID:    &tid,
	}
	if err := s.db.Create(&n).Error; err != nil {
		logger.Warn().Err(err).Uint("task_id", task.ID).Msg("failed to create assignment notification")
	}
}

// NotifyPhaseChanged tells every member of a project about a phase
// change. Best-effort.
func (s *NotificationService) NotifyPhaseChanged(project *models.Project) {
	var members []models.ProjectMember
	if err := s.db.Where("project_id = ?", project.ID).Find(&members).Error; err != nil {
		logger.Warn().Err(err).Uint("project_id", project.ID).Msg("failed to load members for phase notification")
		return
	}

	recipients := []uint{project.CreatedBy}
	for _, m := range members {
		recipients = append(recipients, m.UserID)
	}

	pid := project.ID
	for _, userID := range recipients {
		n := models.Notification{
			UserID:    userID,
			Type:      models.NotificationPhaseChanged,
			Message:   fmt.Sprintf("Project %q moved to phase %s", project.Name, project.CurrentPhase),
			ProjectID: &pid,
		}
		if err := s.db.Create(&n).Error; err != nil {
			logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to create phase notification")
		}
	}
}

// ScanDueSoon creates a due-soon notification for every open assigned
// task whose due date is within windowDays business days (weekends and
// observed holidays excluded). A task is only notified once per day.
// Returns the number of notifications created.
func (s *NotificationService) ScanDueSoon(windowDays int) (int, error) {
	if windowDays <= 0 {
		windowDays = 3
	}

	now := time.Now()
	var tasks []models.Task
	if err := s.db.
		Where("due_date IS NOT NULL AND assignee_id IS NOT NULL").
		Where("status IN ?", []string{models.TaskStatusPending, models.TaskStatusInProgress}).
		Where("due_date >= ?", now).
		Find(&tasks).Error; err != nil {
		return 0, storageErr(err)
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	created := 0
	for i := range tasks {
		task := tasks[i]
		if s.calendar.WorkdaysInRange(now, *task.DueDate) > windowDays {
			continue
		}

		var already int64
		s.db.Model(&models.Notification{}).
			Where("task_id = ? AND type = ? AND created_at >= ?", task.ID, models.NotificationTaskDueSoon, dayStart).
			Count(&already)
		if already > 0 {
			continue
		}

		tid := task.ID
		pid := task.ProjectID
		n := models.Notification{
			UserID:    *task.AssigneeID,
			Type:      models.NotificationTaskDueSoon,
			Message:   fmt.Sprintf("Task %q is due %s", task.Title, task.DueDate.Format("2006-01-02")),
			ProjectID: &pid,
			TaskID:    &tid,
		}
		if err := s.db.Create(&n).Error; err != nil {
			logger.Warn().Err(err).Uint("task_id", task.ID).Msg("failed to create due-soon notification")
			continue
		}
		created++
	}
	return created, nil
}

// StartScheduler runs the due-soon scan every workday morning.
func (s *NotificationService) StartScheduler(windowDays int) {
	s.cron = cron.New()
	s.cron.AddFunc("0 8 * * 1-5", func() {
		n, err := s.ScanDueSoon(windowDays)
		if err != nil {
			logger.Warnf("[Notification] due-soon scan failed: %v", err)
			return
		}
		if n > 0 {
			logger.Infof("[Notification] created %d due-soon notifications", n)
		}
	})
	s.cron.Start()
}

// StopScheduler stops the due-soon cron.
func (s *NotificationService) StopScheduler() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
