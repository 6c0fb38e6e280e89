package models

import "time"

// Notification types
const (
	NotificationTaskAssigned = "task_assigned"
	NotificationTaskDueSoon  = "task_due_soon"
	NotificationPhaseChanged = "phase_changed"
)

// Notification represents an in-app notification for a user
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Type      string     `gorm:"size:50;not null" json:"type"`
	Message   string     `gorm:"type:text" json:"message"`
	ProjectID *uint      `json:"project_id"`
	TaskID    *uint      `json:"task_id"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
