package models

import "time"

// ActivityLog is the append-only activity ledger. Entries are never
// updated or deleted except by retention cleanup.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorID   uint      `gorm:"index" json:"actor_id"`
	Action    string    `gorm:"size:100;index;not null" json:"action"`
	ProjectID *uint     `gorm:"index" json:"project_id"`
	TaskID    *uint     `json:"task_id"`
	Details   string    `gorm:"type:text" json:"details"` // JSON extra data
	Bulk      bool      `gorm:"default:false" json:"bulk"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }

// ActivityOutbox is the staging row written in the same transaction as
// the mutation it describes. A dispatcher moves rows into activity_logs,
// so a crash after commit cannot lose an entry.
type ActivityOutbox struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ActorID      uint       `json:"actor_id"`
	Action       string     `gorm:"size:100;not null" json:"action"`
	ProjectID    *uint      `json:"project_id"`
	TaskID       *uint      `json:"task_id"`
	Details      string     `gorm:"type:text" json:"details"`
	Bulk         bool       `gorm:"default:false" json:"bulk"`
	CreatedAt    time.Time  `json:"created_at"`
	DispatchedAt *time.Time `gorm:"index" json:"dispatched_at"`
}

func (ActivityOutbox) TableName() string { return "activity_outbox" }
