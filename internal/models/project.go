package models

import (
	"time"

	"gorm.io/gorm"
)

// Project lifecycle phases, in order. A project only ever advances one
// step at a time and never regresses.
const (
	PhaseClientAcquisition = "client_acquisition"
	PhaseStrategyPlanning  = "strategy_planning"
	PhaseProduction        = "production"
	PhasePostProduction    = "post_production"
	PhaseDelivery          = "delivery"
)

// Project priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Project represents a client engagement moving through the delivery pipeline
type Project struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ClientID     uint           `gorm:"not null;index" json:"client_id"`
	Client       *Client        `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Name         string         `gorm:"size:200;not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	CurrentPhase string         `gorm:"size:50;not null;default:client_acquisition" json:"current_phase"`
	Priority     string         `gorm:"size:20;default:medium" json:"priority"`
	StartDate    *time.Time     `json:"start_date"`
	Deadline     *time.Time     `json:"deadline"`
	CreatedBy    uint           `gorm:"index" json:"created_by"` // implicit owner
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }
