package models

import (
	"time"

	"gorm.io/gorm"
)

// Client represents a customer that owns projects
type Client struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"size:200;not null" json:"name"`
	ContactName   string         `gorm:"size:100" json:"contact_name"`
	ContactEmail  string         `gorm:"size:255" json:"contact_email"`
	Phone         string         `gorm:"size:50" json:"phone"`
	Notes         string         `gorm:"type:text" json:"notes"`
	CreatedBy     uint           `json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Client) TableName() string { return "clients" }
